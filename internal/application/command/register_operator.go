package command

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/lessonhub/lesson-ledger-bot/internal/domain/operator"
	"github.com/lessonhub/lesson-ledger-bot/internal/domain/shared"
)

// RegisterOperatorCommand carries the Telegram profile seen on /start.
type RegisterOperatorCommand struct {
	TelegramID shared.OperatorID
	Username   string
	FirstName  string
	LastName   string
}

// RegisterOperatorHandler upserts operator profiles. The record is
// bookkeeping only; authorization stays with the configured allowlist.
type RegisterOperatorHandler struct {
	operatorRepo operator.Repository
	logger       *slog.Logger
}

// NewRegisterOperatorHandler creates a new RegisterOperatorHandler.
func NewRegisterOperatorHandler(operatorRepo operator.Repository, logger *slog.Logger) *RegisterOperatorHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &RegisterOperatorHandler{
		operatorRepo: operatorRepo,
		logger:       logger.With("component", "register_operator"),
	}
}

// Handle inserts or refreshes the profile.
func (h *RegisterOperatorHandler) Handle(ctx context.Context, cmd RegisterOperatorCommand) (*operator.Operator, error) {
	o, err := operator.NewOperator(cmd.TelegramID, cmd.Username, cmd.FirstName, cmd.LastName)
	if err != nil {
		return nil, err
	}
	if err := h.operatorRepo.Upsert(ctx, o); err != nil {
		return nil, fmt.Errorf("register operator: %w", err)
	}
	h.logger.Debug("operator profile upserted", "operator_id", cmd.TelegramID.Int64())
	return o, nil
}
