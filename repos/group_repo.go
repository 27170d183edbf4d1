package repos

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	m "github.com/quantopy-dev/quantopy/models"
	q "github.com/quantopy-dev/quantopy/queries"
)

func (pg *Postgres) GetGroups(ctx context.Context) ([]*m.Group, error) {
	groupSql := q.Get(q.QueryHelper.Select.AllGroupConfigurations)

	groups, err := Query[m.GroupConfiguration](ctx, pg, groupSql, pgx.NamedArgs{})
	if err != nil {
		return nil, fmt.Errorf("unable to get groups: %w", err)
	}

	memberSql := q.Get(q.QueryHelper.Select.AllGroupMembers)

	members, err := Query[m.GroupMember](ctx, pg, memberSql, pgx.NamedArgs{})
	if err != nil {
		return nil, fmt.Errorf("unable to get group members: %w", err)
	}

	memberLookup := make(map[int32][]m.GroupMember)
	for _, v := range members {
		memberLookup[v.ConfigurationId] = append(memberLookup[v.ConfigurationId], *v)
	}

	res := make([]*m.Group, 0, len(groups))
	for _, v := range groups {
		res = append(res, &m.Group{
			GroupConfiguration: *v,
			Members:            memberLookup[v.Id],
		})
	}

	return res, nil
}

func (pg *Postgres) GetGroupByID(ctx context.Context, id int32) (*m.Group, error) {
	groupSql := q.Get(q.QueryHelper.Select.GroupConfigurationById)

	groups, err := Query[m.GroupConfiguration](ctx, pg, groupSql, pgx.NamedArgs{"id": id})
	if err != nil {
		return nil, fmt.Errorf("unable to get group by id: %w", err)
	}
	if len(groups) == 0 {
		return nil, nil
	}

	memberSql := q.Get(q.QueryHelper.Select.GroupMembersByConfigurationId)

	members, err := Query[m.GroupMember](ctx, pg, memberSql, pgx.NamedArgs{"id": id})
	if err != nil {
		return nil, fmt.Errorf("unable to get group members by id: %w", err)
	}

	group := &m.Group{
		GroupConfiguration: *groups[0],
		Members:            make([]m.GroupMember, 0, len(members)),
	}

	for _, v := range members {
		group.Members = append(group.Members, *v)
	}

	return group, nil
}

func (pg *Postgres) InsertNewGroupTx(ctx context.Context, ng m.NewGroup, tx pgx.Tx) (*m.GroupConfiguration, error) {
	if ng.Name == "" {
		return nil, fmt.Errorf("group name is required")
	}
	if len(ng.SourceIds) == 0 {
		return nil, fmt.Errorf("group must include at least one member")
	}

	insertSql := q.Get(q.QueryHelper.Insert.GroupConfiguration)

	config := m.GroupConfiguration{
		Name: ng.Name,
	}

	args := pgx.NamedArgs{
		"name": ng.Name,
	}

	if err := tx.QueryRow(ctx, insertSql, args).Scan(&config.Id, &config.CreatedAt, &config.UpdatedAt); err != nil {
		return nil, fmt.Errorf("error inserting group configuration: %w", err)
	}

	if err := insertGroupMembers(ctx, tx, config.Id, ng.SourceIds); err != nil {
		return nil, err
	}

	return &config, nil
}

func (pg *Postgres) InsertNewGroup(ctx context.Context, ng m.NewGroup) (*m.Group, error) {
	tx, err := pg.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("error beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	config, err := pg.InsertNewGroupTx(ctx, ng, tx)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("error committing group insert: %w", err)
	}

	// re-read for the joined member symbols
	return pg.GetGroupByID(ctx, config.Id)
}

func (pg *Postgres) UpdateExistingGroupTx(ctx context.Context, groupID int32, ng m.NewGroup, tx pgx.Tx) (*m.GroupConfiguration, error) {
	if ng.Name == "" {
		return nil, fmt.Errorf("group name is required")
	}
	if len(ng.SourceIds) == 0 {
		return nil, fmt.Errorf("group must include at least one member")
	}

	updateSql := q.Get(q.QueryHelper.Update.GroupConfiguration)

	updateArgs := pgx.NamedArgs{
		"id":   groupID,
		"name": ng.Name,
	}

	var config m.GroupConfiguration
	if err := tx.QueryRow(ctx, updateSql, updateArgs).Scan(
		&config.Id,
		&config.Name,
		&config.CreatedAt,
		&config.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("group not found")
		}
		return nil, fmt.Errorf("error updating group configuration: %w", err)
	}

	deleteSql := q.Get(q.QueryHelper.Delete.GroupMemberByConfigurationId)
	if _, err := tx.Exec(ctx, deleteSql, pgx.NamedArgs{"id": groupID}); err != nil {
		return nil, fmt.Errorf("error deleting existing group members: %w", err)
	}

	if err := insertGroupMembers(ctx, tx, config.Id, ng.SourceIds); err != nil {
		return nil, err
	}

	return &config, nil
}

func (pg *Postgres) UpdateExistingGroup(ctx context.Context, groupID int32, ng m.NewGroup) (*m.Group, error) {
	tx, err := pg.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("error beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := pg.UpdateExistingGroupTx(ctx, groupID, ng, tx); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("error committing group update: %w", err)
	}

	return pg.GetGroupByID(ctx, groupID)
}

func (pg *Postgres) DeleteGroupTx(ctx context.Context, groupID int32, tx pgx.Tx) error {
	deleteSql := q.Get(q.QueryHelper.Delete.GroupConfiguration)

	tag, err := tx.Exec(ctx, deleteSql, pgx.NamedArgs{"id": groupID})
	if err != nil {
		return fmt.Errorf("error deleting group: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("group not found")
	}

	return nil
}

func (pg *Postgres) DeleteGroup(ctx context.Context, groupID int32) error {
	tx, err := pg.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("error beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := pg.DeleteGroupTx(ctx, groupID, tx); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("error committing group delete: %w", err)
	}

	return nil
}

func insertGroupMembers(ctx context.Context, tx pgx.Tx, configurationId int32, sourceIds []int32) error {
	memberRows := make([][]any, len(sourceIds))
	for i, sid := range sourceIds {
		memberRows[i] = []any{configurationId, sid}
	}

	columns := []string{"configuration_id", "source_id"}
	if _, err := tx.CopyFrom(ctx, pgx.Identifier{"group_configuration_member"}, columns, pgx.CopyFromRows(memberRows)); err != nil {
		return fmt.Errorf("error inserting group members: %w", err)
	}

	return nil
}
