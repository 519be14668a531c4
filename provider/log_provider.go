package provider

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/Digital-Creators-Team/casino-engine/config"
	"github.com/Digital-Creators-Team/casino-engine/events/kafka"
	"github.com/Digital-Creators-Team/casino-engine/game"
	"github.com/Digital-Creators-Team/casino-engine/httpclient"
	"github.com/Digital-Creators-Team/casino-engine/pkg/providers"
	"github.com/Digital-Creators-Team/casino-engine/types"
	"github.com/mitchellh/mapstructure"
	"github.com/rs/zerolog"
)

const sourceService = "casino-engine"

// RoundDetails is the audit payload of one round, decoded back with mapstructure
type RoundDetails struct {
	RoundID    string      `mapstructure:"roundId" json:"roundId"`
	Username   string      `mapstructure:"username" json:"username"`
	Game       string      `mapstructure:"game" json:"game"`
	Stake      float64     `mapstructure:"stake" json:"stake"`
	Payout     float64     `mapstructure:"payout" json:"payout"`
	Win        bool        `mapstructure:"win" json:"win"`
	Unpaid     bool        `mapstructure:"unpaid" json:"unpaid"`
	HouseWins  bool        `mapstructure:"houseWins" json:"houseWins"`
	Signature  string      `mapstructure:"signature" json:"signature,omitempty"`
	SettleSig  string      `mapstructure:"settleSignature" json:"settleSignature,omitempty"`
	FailReason string      `mapstructure:"failReason" json:"failReason,omitempty"`
	Detail     interface{} `mapstructure:"detail" json:"detail,omitempty"`
}

// AuditEvent represents an audit event for Kafka
type AuditEvent struct {
	Timestamp     time.Time   `json:"timestamp"`
	UserID        string      `json:"user_id"`
	SessionID     string      `json:"session_id,omitempty"`
	SourceService string      `json:"source_service"`
	Action        string      `json:"action"`
	Details       interface{} `json:"details"`
	Result        string      `json:"result"`
	TraceID       string      `json:"trace_id,omitempty"`
}

// eventSender is the part of kafka.Producer the audit trail uses.
type eventSender interface {
	SendMessage(topic, key string, value interface{}) error
	SendMessageSync(ctx context.Context, topic, key string, value interface{}) error
}

// KafkaLogProvider implements providers.LogProvider: rounds go to Kafka,
// history is read back from the log service.
type KafkaLogProvider struct {
	client   *httpclient.Client
	producer eventSender
	topic    string
	logger   zerolog.Logger
}

// NewKafkaLogProvider creates a log provider; a nil producer disables auditing.
func NewKafkaLogProvider(cfg *config.Config, producer *kafka.Producer, logger zerolog.Logger) *KafkaLogProvider {
	client := httpclient.New(httpclient.Config{
		BaseURL: cfg.LogService.BaseURL,
		Timeout: cfg.LogService.Timeout,
		Logger:  logger,
	})
	var sender eventSender
	if producer != nil {
		sender = producer
	}
	return newKafkaLogProvider(client, sender, cfg.Kafka.Topic("rounds", "casino.rounds"), logger)
}

func newKafkaLogProvider(client *httpclient.Client, producer eventSender, topic string, logger zerolog.Logger) *KafkaLogProvider {
	return &KafkaLogProvider{
		client:   client,
		producer: producer,
		topic:    topic,
		logger:   logger.With().Str("component", "log_provider").Logger(),
	}
}

// auditEvent builds the Kafka payload for a round; the action is the game
// and the result is the round's final state.
func auditEvent(log *providers.RoundLog, traceID string) AuditEvent {
	stake, _ := strconv.ParseFloat(log.Stake, 64)
	payout, _ := strconv.ParseFloat(log.Payout, 64)
	return AuditEvent{
		Timestamp:     log.Timestamp,
		UserID:        log.PlayerID,
		SessionID:     log.RoundID,
		SourceService: sourceService,
		Action:        string(log.Game),
		Details: RoundDetails{
			RoundID:    log.RoundID,
			Username:   log.Username,
			Game:       string(log.Game),
			Stake:      stake,
			Payout:     payout,
			Win:        log.Win,
			Unpaid:     log.Unpaid,
			HouseWins:  log.HouseWins,
			Signature:  log.Signature,
			SettleSig:  log.SettleSig,
			FailReason: log.FailReason,
			Detail:     log.Detail,
		},
		Result:  log.State,
		TraceID: traceID,
	}
}

// LogRound queues the audit event. Failed and unpaid rounds wait for the
// broker instead: a full queue may not drop them.
func (p *KafkaLogProvider) LogRound(ctx context.Context, log *providers.RoundLog) error {
	if p.producer == nil {
		p.logger.Debug().Str("round_id", log.RoundID).Msg("Kafka producer not configured, skipping round log")
		return nil
	}
	traceID, _ := ctx.Value(providers.TraceIDKey).(string)
	ev := auditEvent(log, traceID)
	var err error
	if log.Unpaid || log.State == string(game.StateFailed) {
		err = p.producer.SendMessageSync(ctx, p.topic, log.RoundID, ev)
	} else {
		err = p.producer.SendMessage(p.topic, log.RoundID, ev)
	}
	if err != nil {
		return fmt.Errorf("failed to log round: %w", err)
	}
	return nil
}

// LogEntry represents an audit log entry from the log service
type LogEntry struct {
	ID        string                 `json:"id"`
	Timestamp time.Time              `json:"timestamp"`
	UserID    string                 `json:"user_id"`
	SessionID string                 `json:"session_id,omitempty"`
	Action    string                 `json:"action"`
	Details   map[string]interface{} `json:"details"`
	Result    string                 `json:"result"`
}

// DataAuditEvent is the data payload of a log search
type DataAuditEvent struct {
	Logs  []LogEntry `json:"logs"`
	Total int        `json:"total"`
}

// LogServiceResponse wraps the log service response (can be success or error)
type LogServiceResponse struct {
	StatusCode int               `json:"status_code"`
	IsSuccess  bool              `json:"is_success"`
	Data       DataAuditEvent    `json:"data,omitempty"`
	Error      types.ErrorDetail `json:"error,omitempty"`
}

// GetRoundHistory pages a player's audited rounds for one game
func (p *KafkaLogProvider) GetRoundHistory(ctx context.Context, query *providers.HistoryQuery) (*providers.HistoryResponse, error) {
	params := url.Values{
		"source_service": {sourceService},
		"action":         {string(query.Game)},
		"user_id":        {query.PlayerID},
		"offset":         {strconv.Itoa(query.Page)},
		"limit":          {strconv.Itoa(query.Limit)},
	}
	resp, err := p.client.Get(ctx, "/logs/search", params)
	if err != nil {
		return nil, fmt.Errorf("failed to get round history: %w", err)
	}

	var result LogServiceResponse
	if err := resp.Unmarshal(&result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if !resp.IsSuccess() || !result.IsSuccess {
		msg := result.Error.ErrorMessage
		if msg == "" {
			msg = fmt.Sprintf("status %d", resp.StatusCode)
		}
		return nil, fmt.Errorf("log service error: %s", msg)
	}

	items := make([]providers.HistoryItem, 0, len(result.Data.Logs))
	for _, entry := range result.Data.Logs {
		item, ok := p.toHistoryItem(entry)
		if ok {
			items = append(items, item)
		}
	}
	return &providers.HistoryResponse{Total: result.Data.Total, Items: items}, nil
}

func (p *KafkaLogProvider) toHistoryItem(entry LogEntry) (providers.HistoryItem, bool) {
	var details RoundDetails
	if err := mapstructure.Decode(entry.Details, &details); err != nil {
		p.logger.Warn().Err(err).Str("id", entry.ID).Msg("Failed to decode round details")
		return providers.HistoryItem{}, false
	}
	item := providers.HistoryItem{
		RoundID: details.RoundID,
		Time:    entry.Timestamp,
		Stake:   details.Stake,
		Payout:  details.Payout,
		Win:     details.Win,
		Unpaid:  details.Unpaid,
	}
	if detail, ok := details.Detail.(map[string]interface{}); ok {
		item.Detail = detail
	}
	return item, true
}
