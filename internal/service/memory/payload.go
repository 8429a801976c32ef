package memory

import (
	"encoding/json"
	"time"

	"github.com/sandevgo/svim/internal/core"
)

func toPoint(r core.ConversationRecord) core.Point {
	payload := map[string]any{
		core.PayloadUserID:    r.UserID,
		core.PayloadRole:      r.Role,
		core.PayloadContent:   r.Content,
		core.PayloadCreatedAt: r.CreatedAt.Format(time.RFC3339Nano),
		core.PayloadSeq:       r.Seq,
	}
	if r.SessionID != "" {
		payload[core.PayloadSessionID] = r.SessionID
	} else {
		payload[core.PayloadSessionID] = nil
	}
	return core.Point{ID: r.ID, Vector: r.Embedding, Payload: payload}
}

func fromPoints(points []core.Point) []core.ConversationRecord {
	records := make([]core.ConversationRecord, 0, len(points))
	for _, p := range points {
		if len(p.Payload) == 0 {
			continue
		}
		records = append(records, fromPoint(p))
	}
	return records
}

func fromPoint(p core.Point) core.ConversationRecord {
	r := core.ConversationRecord{
		ID:        p.ID,
		Role:      stringField(p.Payload, core.PayloadRole),
		Content:   stringField(p.Payload, core.PayloadContent),
		UserID:    stringField(p.Payload, core.PayloadUserID),
		SessionID: stringField(p.Payload, core.PayloadSessionID),
		Seq:       intField(p.Payload, core.PayloadSeq),
		Embedding: p.Vector,
	}
	if r.Role == "" {
		r.Role = core.RoleUser
	}
	if ts, err := time.Parse(time.RFC3339Nano, stringField(p.Payload, core.PayloadCreatedAt)); err == nil {
		r.CreatedAt = ts
	}
	return r
}

func stringField(payload map[string]any, key string) string {
	if v, ok := payload[key].(string); ok {
		return v
	}
	return ""
}

// intField accepts the numeric shapes JSON decoders produce.
func intField(payload map[string]any, key string) int {
	switch v := payload[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	case json.Number:
		n, _ := v.Int64()
		return int(n)
	}
	return 0
}
