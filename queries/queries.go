package queries

import (
	"embed"
	"fmt"
)

//go:embed delete/*.sql insert/*.sql select/*.sql update/*.sql
var Files embed.FS

// ^^^ the go:embed directive is used to embed the files in the queries package
// meaning on compile time it will convert the files to binary data and embed it in the queries package

type DeleteQueries struct {
	GroupConfiguration           string
	GroupMemberByConfigurationId string
}

type InsertQueries struct {
	AnalysisRun        string
	GroupConfiguration string
	Metadata           string
}

type SelectQueries struct {
	AllGroupConfigurations        string
	AllGroupMembers               string
	AllMetadata                   string
	GroupConfigurationById        string
	GroupMembersByConfigurationId string
	MetadataBySymbol              string
	MostRecentTimestampBySymbol   string
	PriceObservationsBySymbol     string
}

type UpdateQueries struct {
	AnalysisRun        string
	GroupConfiguration string
	LastRefreshedDate  string
}

type QueryHelperStruct struct {
	Delete DeleteQueries
	Insert InsertQueries
	Select SelectQueries
	Update UpdateQueries
}

var QueryHelper = QueryHelperStruct{
	Delete: DeleteQueries{
		GroupConfiguration:           "delete/group_configuration.sql",
		GroupMemberByConfigurationId: "delete/group_member_by_configuration_id.sql",
	},
	Insert: InsertQueries{
		AnalysisRun:        "insert/analysis_run.sql",
		GroupConfiguration: "insert/group_configuration.sql",
		Metadata:           "insert/metadata.sql",
	},
	Select: SelectQueries{
		AllGroupConfigurations:        "select/all_group_configurations.sql",
		AllGroupMembers:               "select/all_group_members.sql",
		AllMetadata:                   "select/all_metadata.sql",
		GroupConfigurationById:        "select/group_configuration_by_id.sql",
		GroupMembersByConfigurationId: "select/group_members_by_configuration_id.sql",
		MetadataBySymbol:              "select/metadata_by_symbol.sql",
		MostRecentTimestampBySymbol:   "select/most_recent_timestamp_by_symbol.sql",
		PriceObservationsBySymbol:     "select/price_observations_by_symbol.sql",
	},
	Update: UpdateQueries{
		AnalysisRun:        "update/analysis_run.sql",
		GroupConfiguration: "update/group_configuration.sql",
		LastRefreshedDate:  "update/last_refreshed_date.sql",
	},
}

func Get(path string) string {
	content, err := Files.ReadFile(path)
	if err != nil {
		panic(fmt.Errorf("error reading query file: %w", err))
	}

	return string(content)
}
