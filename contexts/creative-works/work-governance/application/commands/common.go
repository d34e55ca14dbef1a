package commands

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"strings"
	"time"

	application "atelier/contexts/creative-works/work-governance/application"
	domainerrors "atelier/contexts/creative-works/work-governance/domain/errors"
	"atelier/contexts/creative-works/work-governance/ports"
)

const moduleName = application.ModuleName

const defaultIdempotencyTTL = 7 * 24 * time.Hour

// idempotencyClaimLease bounds how long a crashed request keeps its key.
const idempotencyClaimLease = 5 * time.Minute

func resolveNow(clock ports.Clock) time.Time {
	if clock == nil {
		return time.Now().UTC()
	}
	return clock.Now().UTC()
}

func requireCaller(callerID string) error {
	if strings.TrimSpace(callerID) == "" {
		return domainerrors.ErrMissingIdentity
	}
	return nil
}

func requireIdempotency(key string) error {
	if strings.TrimSpace(key) == "" {
		return domainerrors.ErrIdempotencyKeyRequired
	}
	return nil
}

// idempotentRunner replays a committed result when a key is reused with the
// same request and refuses the key when the request differs. The key is
// claimed before exec runs; a second caller arriving while the first is
// still running gets ErrIdempotencyInProgress.
type idempotentRunner struct {
	store ports.IdempotencyStore
	clock ports.Clock
	ttl   time.Duration
}

func (r idempotentRunner) run(
	ctx context.Context,
	key string,
	requestHash string,
	out any,
	exec func() (any, error),
) (bool, error) {
	now := resolveNow(r.clock)
	existing, claimed, err := r.store.Claim(ctx, ports.IdempotencyRecord{
		Key:         key,
		RequestHash: requestHash,
		Payload:     []byte{},
		ExpiresAt:   now.Add(idempotencyClaimLease),
	}, now)
	if err != nil {
		return false, err
	}
	if !claimed {
		switch {
		case existing.RequestHash != requestHash:
			return false, domainerrors.ErrIdempotencyConflict
		case existing.Pending():
			return false, domainerrors.ErrIdempotencyInProgress
		}
		return true, json.Unmarshal(existing.Payload, out)
	}

	result, err := exec()
	if err != nil {
		if releaseErr := r.store.Release(ctx, key, requestHash); releaseErr != nil {
			return false, errors.Join(err, releaseErr)
		}
		return false, err
	}
	payload, err := json.Marshal(result)
	if err != nil {
		return false, err
	}
	ttl := r.ttl
	if ttl <= 0 {
		ttl = defaultIdempotencyTTL
	}
	if err := r.store.Put(ctx, ports.IdempotencyRecord{
		Key:         key,
		RequestHash: requestHash,
		Payload:     payload,
		ExpiresAt:   now.Add(ttl),
	}); err != nil {
		return false, err
	}
	return false, json.Unmarshal(payload, out)
}

func hashStrings(values ...string) string {
	sum := sha256.Sum256([]byte(strings.Join(values, "|")))
	return hex.EncodeToString(sum[:])
}
