package pipeline

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"
	"strings"
	"time"

	"cloud.google.com/go/civil"

	"github.com/dvloznov/ledger-assistant/internal/domain"
)

// KeyPolicy decides how idempotency keys are derived when the transport has
// no stable message identifier. The content-hash fallback is a heuristic: it
// can either collapse two identical same-minute messages into one record or
// keep them separate and accept occasional true duplicates.
type KeyPolicy string

const (
	// KeyPolicyCollapse hashes (user, text, minute bucket): verbatim
	// repeats inside one minute count as one transaction.
	KeyPolicyCollapse KeyPolicy = "collapse"
	// KeyPolicySeparate hashes the full receive timestamp as well, so
	// identical texts always produce distinct records.
	KeyPolicySeparate KeyPolicy = "separate"
)

// ParseKeyPolicy validates a configured policy value.
func ParseKeyPolicy(s string) (KeyPolicy, error) {
	switch KeyPolicy(s) {
	case KeyPolicyCollapse, KeyPolicySeparate:
		return KeyPolicy(s), nil
	case "":
		return KeyPolicyCollapse, nil
	default:
		return "", fmt.Errorf("unknown fallback key policy %q", s)
	}
}

// Message is one incoming chat message as delivered by the transport.
// MessageID may be empty for transports without stable identifiers.
type Message struct {
	UserID     string
	MessageID  string
	Text       string
	ReceivedAt time.Time
}

// Normalize validates and cleans a candidate into a TransactionRecord.
// Amount absence is terminal; category absence falls back to
// "uncategorized"; date absence defaults to the ingestion date in loc.
func Normalize(c *Candidate, msg Message, confidence float64, loc *time.Location, policy KeyPolicy) (*domain.TransactionRecord, error) {
	if loc == nil {
		loc = time.UTC
	}

	if c.Amount == nil {
		return nil, &domain.NormalizationError{Reason: domain.ReasonMissingAmount}
	}

	direction := domain.DirectionExpense
	if c.Direction != nil {
		direction = domain.Direction(*c.Direction)
	}

	// A negative or refund-encoded amount flips the direction; the stored
	// magnitude is always positive.
	raw := *c.Amount
	if raw < 0 {
		raw = -raw
		if direction == domain.DirectionExpense {
			direction = domain.DirectionIncome
		} else {
			direction = domain.DirectionExpense
		}
	}

	amount := int64(math.Round(raw))
	if amount == 0 {
		return nil, &domain.NormalizationError{
			Reason: domain.ReasonZeroAmount,
			Detail: fmt.Sprintf("amount %v rounds to zero minor units", *c.Amount),
		}
	}

	occurred, err := resolveDate(c.Date, msg.Text, msg.ReceivedAt, loc)
	if err != nil {
		return nil, err
	}

	description := ""
	if c.Description != nil {
		description = *c.Description
	}

	return &domain.TransactionRecord{
		Key:         IdempotencyKey(msg, policy),
		Amount:      amount,
		Direction:   direction,
		Category:    NormalizeCategory(stringOrEmpty(c.Category)),
		Description: description,
		OccurredOn:  occurred,
		RawText:     msg.Text,
		Confidence:  confidence,
		RecordedAt:  msg.ReceivedAt,
	}, nil
}

// IdempotencyKey derives the duplicate-detection key for a message. With a
// stable message identifier the key is a hash of (user, message ID); without
// one it is a content hash whose time component depends on the policy.
func IdempotencyKey(msg Message, policy KeyPolicy) string {
	if msg.MessageID != "" {
		return hashKey(msg.UserID, msg.MessageID)
	}

	bucket := msg.ReceivedAt.UTC().Truncate(time.Minute).Format(time.RFC3339)
	if policy == KeyPolicySeparate {
		bucket = msg.ReceivedAt.UTC().Format(time.RFC3339Nano)
	}
	return hashKey(msg.UserID, msg.Text, bucket)
}

func hashKey(parts ...string) string {
	h := sha256.New()
	for i, p := range parts {
		if i > 0 {
			h.Write([]byte{0})
		}
		h.Write([]byte(p))
	}
	return hex.EncodeToString(h.Sum(nil))
}

// resolveDate picks the occurred-on date: an explicit model date wins,
// relative phrases resolve against the ingestion time in the user's
// timezone, and absence defaults to the ingestion date.
func resolveDate(candidate *string, rawText string, receivedAt time.Time, loc *time.Location) (civil.Date, error) {
	today := civil.DateOf(receivedAt.In(loc))

	if candidate != nil {
		switch strings.ToLower(strings.TrimSpace(*candidate)) {
		case "today":
			return today, nil
		case "yesterday":
			return today.AddDays(-1), nil
		}

		d, err := civil.ParseDate(strings.TrimSpace(*candidate))
		if err != nil {
			return civil.Date{}, &domain.NormalizationError{
				Reason: domain.ReasonBadDate,
				Detail: fmt.Sprintf("unparseable date %q", *candidate),
			}
		}
		return d, nil
	}

	if containsWord(rawText, "yesterday") {
		return today.AddDays(-1), nil
	}
	return today, nil
}

func containsWord(text, word string) bool {
	for _, f := range strings.Fields(strings.ToLower(text)) {
		if strings.Trim(f, ".,!?;:") == word {
			return true
		}
	}
	return false
}

func stringOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
