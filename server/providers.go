package server

import (
	"github.com/Digital-Creators-Team/casino-engine/pkg/providers"
	"github.com/Digital-Creators-Team/casino-engine/reconcile"
)

// Re-export the collaborator types the server is wired with, so callers of
// server.New need not import pkg/providers themselves.
type (
	PaymentProvider  = providers.PaymentProvider
	ResultEvent      = providers.ResultEvent
	HistoryResponse  = providers.HistoryResponse
	LeaderboardEntry = providers.LeaderboardEntry
	UnpaidStore      = reconcile.Store
)
