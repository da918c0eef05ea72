package app

import (
	"context"
	"fmt"

	"github.com/example/umig/internal/core/hierarchy"
	"github.com/example/umig/internal/ctxutil"
	"github.com/example/umig/internal/dberr"
	"github.com/example/umig/internal/ports/primary"
	"github.com/example/umig/internal/ports/secondary"
)

// Initial status name for every status-bearing level.
const initialStatusName = "PLANNING"

// resolveStatus looks up a status by name for the entity type of level.
func resolveStatus(ctx context.Context, statusRepo secondary.StatusRepository, level hierarchy.Level, name string) (*secondary.StatusRecord, error) {
	entityType := level.StatusEntityType()
	if entityType == "" {
		return nil, dberr.Validation("%s has no status", level)
	}
	if name == "" {
		return nil, dberr.Validation("status is required")
	}
	status, err := statusRepo.GetByName(ctx, name, entityType)
	if err != nil {
		if dberr.IsNotFound(err) {
			return nil, dberr.ForeignKeyViolation(string(level), dberr.OpUpdate,
				fmt.Sprintf("status %s does not exist for %s", name, entityType))
		}
		return nil, fmt.Errorf("failed to resolve status: %w", err)
	}
	return status, nil
}

// checkParent runs the create-child guard against the live parent row.
func checkParent(ctx context.Context, hierarchyRepo secondary.HierarchyRepository, child hierarchy.Level, parentID string) error {
	parent := child.Parent()
	guardCtx := hierarchy.CreateChildContext{
		ChildLevel:  child,
		ParentLevel: parent,
		ParentID:    parentID,
	}
	if parent != "" && parentID != "" {
		state, err := hierarchyRepo.State(ctx, string(parent), parentID)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", parent, err)
		}
		guardCtx.ParentExists = state.Exists
		guardCtx.ParentDeleted = state.Deleted
	}
	if result := hierarchy.CanCreateChild(guardCtx); !result.Allowed {
		return result.Error()
	}
	return nil
}

// deleteNode soft-deletes a row, or hard-deletes it when req.Hard is set,
// after the matching guard allows it.
func deleteNode(ctx context.Context, hierarchyRepo secondary.HierarchyRepository, logWriter secondary.LogWriter, level hierarchy.Level, req primary.DeleteRequest) error {
	if req.ID == "" {
		return dberr.Validation("%s id is required", level)
	}
	state, err := hierarchyRepo.State(ctx, string(level), req.ID)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", level, err)
	}

	if req.Hard {
		result := hierarchy.CanHardDelete(hierarchy.HardDeleteContext{
			Level:    level,
			ID:       req.ID,
			Exists:   state.Exists,
			Children: state.Children,
		})
		if !result.Allowed {
			return result.Error()
		}
		if err := hierarchyRepo.HardDelete(ctx, string(level), req.ID); err != nil {
			return err
		}
	} else {
		result := hierarchy.CanSoftDelete(hierarchy.SoftDeleteContext{
			Level:   level,
			ID:      req.ID,
			Exists:  state.Exists,
			Deleted: state.Deleted,
		})
		if !result.Allowed {
			return result.Error()
		}
		if err := hierarchyRepo.SoftDelete(ctx, string(level), req.ID, ctxutil.ActorOrSystem(ctx)); err != nil {
			return err
		}
	}

	if logWriter != nil {
		_ = logWriter.LogDelete(ctx, string(level), req.ID)
	}
	return nil
}

func recordToStatus(r *secondary.StatusRecord) *primary.Status {
	if r == nil {
		return nil
	}
	return &primary.Status{
		ID:         r.ID,
		Name:       r.Name,
		Color:      r.Color,
		EntityType: r.EntityType,
	}
}

func statusName(r *secondary.StatusRecord) string {
	if r == nil {
		return ""
	}
	return r.Name
}
