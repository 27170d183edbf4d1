package core

import (
	"fmt"
	"strings"

	m "github.com/quantopy-dev/quantopy/models"
	"github.com/quantopy-dev/quantopy/returns"
)

// CreateGroup stores a named set of registered symbols. Every symbol must be
// registered first.
func (sc *ServiceContext) CreateGroup(req m.GroupRequest) (*m.GroupResponse, error) {
	name, err := validateGroupName(req.Name)
	if err != nil {
		return nil, err
	}

	sourceIds, err := sc.resolveGroupSymbols(req.Symbols)
	if err != nil {
		return nil, err
	}

	group, err := sc.PostgresConnection.InsertNewGroup(sc.Context, m.NewGroup{Name: name, SourceIds: sourceIds})
	if err != nil {
		return nil, fmt.Errorf("error creating group %s: %w", name, err)
	}

	sc.Logger.Info().Int32("group_id", group.Id).Str("name", name).Int("members", len(group.Members)).Msg("group created")

	res := m.MapGroupToResponse(group)
	return &res, nil
}

// GetGroups returns every stored group with its members.
func (sc *ServiceContext) GetGroups() ([]m.GroupResponse, error) {
	groups, err := sc.PostgresConnection.GetGroups(sc.Context)
	if err != nil {
		return nil, fmt.Errorf("error listing groups: %w", err)
	}

	res := make([]m.GroupResponse, len(groups))
	for i, group := range groups {
		res[i] = m.MapGroupToResponse(group)
	}

	return res, nil
}

func (sc *ServiceContext) GetGroup(groupID int32) (*m.GroupResponse, error) {
	group, err := sc.PostgresConnection.GetGroupByID(sc.Context, groupID)
	if err != nil {
		return nil, fmt.Errorf("error getting group %d: %w", groupID, err)
	}
	if group == nil {
		return nil, fmt.Errorf("%w: group %d", ErrNotFound, groupID)
	}

	res := m.MapGroupToResponse(group)
	return &res, nil
}

// UpdateGroup replaces a group's name and membership.
func (sc *ServiceContext) UpdateGroup(groupID int32, req m.GroupRequest) (*m.GroupResponse, error) {
	existing, err := sc.PostgresConnection.GetGroupByID(sc.Context, groupID)
	if err != nil {
		return nil, fmt.Errorf("error getting group %d: %w", groupID, err)
	}
	if existing == nil {
		return nil, fmt.Errorf("%w: group %d", ErrNotFound, groupID)
	}

	name, err := validateGroupName(req.Name)
	if err != nil {
		return nil, err
	}

	sourceIds, err := sc.resolveGroupSymbols(req.Symbols)
	if err != nil {
		return nil, err
	}

	group, err := sc.PostgresConnection.UpdateExistingGroup(sc.Context, groupID, m.NewGroup{Name: name, SourceIds: sourceIds})
	if err != nil {
		return nil, fmt.Errorf("error updating group %d: %w", groupID, err)
	}

	sc.Logger.Info().Int32("group_id", groupID).Str("name", name).Int("members", len(group.Members)).Msg("group updated")

	res := m.MapGroupToResponse(group)
	return &res, nil
}

// DeleteGroup soft deletes a group and its membership.
func (sc *ServiceContext) DeleteGroup(groupID int32) error {
	existing, err := sc.PostgresConnection.GetGroupByID(sc.Context, groupID)
	if err != nil {
		return fmt.Errorf("error getting group %d: %w", groupID, err)
	}
	if existing == nil {
		return fmt.Errorf("%w: group %d", ErrNotFound, groupID)
	}

	if err := sc.PostgresConnection.DeleteGroup(sc.Context, groupID); err != nil {
		return fmt.Errorf("error deleting group %d: %w", groupID, err)
	}

	sc.Logger.Info().Int32("group_id", groupID).Msg("group deleted")
	return nil
}

func validateGroupName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("%w: group name is required", returns.ErrInvalidInput)
	}

	return name, nil
}

// resolveGroupSymbols maps the requested symbols to their stored source ids,
// rejecting blanks, duplicates, and symbols that were never registered.
func (sc *ServiceContext) resolveGroupSymbols(symbols []string) ([]int32, error) {
	if len(symbols) == 0 {
		return nil, fmt.Errorf("%w: a group needs at least one symbol", returns.ErrInvalidInput)
	}

	seen := make(map[string]bool, len(symbols))
	sourceIds := make([]int32, 0, len(symbols))
	for _, s := range symbols {
		symbol := normalizeSymbol(s)
		if symbol == "" {
			return nil, fmt.Errorf("%w: blank symbol in group", returns.ErrInvalidInput)
		}
		if seen[symbol] {
			return nil, fmt.Errorf("%w: symbol %s appears more than once", returns.ErrInvalidInput, symbol)
		}
		seen[symbol] = true

		md, err := sc.PostgresConnection.GetMetadataBySymbol(sc.Context, symbol)
		if err != nil {
			return nil, fmt.Errorf("error resolving symbol %s: %w", symbol, err)
		}
		if md == nil {
			return nil, fmt.Errorf("%w: symbol %s is not registered", returns.ErrInvalidInput, symbol)
		}

		sourceIds = append(sourceIds, md.Id)
	}

	return sourceIds, nil
}
