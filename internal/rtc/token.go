package rtc

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrTampered is returned when the token bytes fail authentication.
	ErrTampered = errors.New("token tampered")
	// ErrExpired is returned when the token is authentic but past its expiry.
	ErrExpired = errors.New("token expired")
	// ErrBindingMismatch is returned when the token's room/subject claims do
	// not match the pair the caller expected.
	ErrBindingMismatch = errors.New("token binding mismatch")
)

// Claims is the canonical block protected by the admission token's code.
// Field order is fixed by this struct; the code is computed over the exact
// serialized bytes, so verification never re-serializes.
type Claims struct {
	RoomID    string `json:"roomId"`
	SubjectID int64  `json:"subjectId"`
	Role      string `json:"role"`
	IssuedAt  int64  `json:"issuedAt"`
	ExpiresAt int64  `json:"expiresAt"`
}

// Token is the admission credential handed back to callers.
type Token struct {
	Token     string `json:"token"`
	RoomID    string `json:"roomId"`
	SubjectID int64  `json:"subjectId"`
	AppID     string `json:"appId"`
	ExpiresAt int64  `json:"expiresAt"`
}

// Service issues and verifies admission tokens. The signing secret is
// read-only after construction; all methods are safe for concurrent use.
type Service struct {
	appID  string
	secret []byte
	now    func() time.Time
}

// encoding rejects non-canonical trailing bits so that a mutation of any
// single character in the token, including the final one, invalidates it.
var encoding = base64.RawURLEncoding.Strict()

// NewService creates a token service bound to an application ID and secret.
func NewService(appID string, secret []byte) *Service {
	return &Service{appID: appID, secret: secret, now: time.Now}
}

// RoomID derives the room identifier for an encounter.
func RoomID(encounterID int64) string {
	return fmt.Sprintf("room_%d", encounterID)
}

// Issue builds claims for (room, subject, role), stamps the validity window
// and returns the signed token. Re-issuing for the same triple is always
// permitted; each token stands on its own expiry.
func (s *Service) Issue(encounterID, subjectID int64, role string, ttl time.Duration) (*Token, error) {
	now := s.now()
	claims := Claims{
		RoomID:    RoomID(encounterID),
		SubjectID: subjectID,
		Role:      role,
		IssuedAt:  now.Unix(),
		ExpiresAt: now.Add(ttl).Unix(),
	}

	payload, err := json.Marshal(claims)
	if err != nil {
		return nil, fmt.Errorf("marshal claims: %w", err)
	}

	mac := s.sign(payload)
	raw := make([]byte, 0, len(payload)+len(mac))
	raw = append(raw, payload...)
	raw = append(raw, mac...)

	return &Token{
		Token:     encoding.EncodeToString(raw),
		RoomID:    claims.RoomID,
		SubjectID: subjectID,
		AppID:     s.appID,
		ExpiresAt: claims.ExpiresAt,
	}, nil
}

// Verify authenticates the token bytes and checks them against the room and
// subject the caller expects. Callers must always pass the pair they expect;
// the claims alone are never trusted to assert identity.
//
// Failures are classified: ErrTampered for any authenticity failure,
// ErrExpired for an authentic but stale token, ErrBindingMismatch when the
// authentic claims name a different room or subject.
func (s *Service) Verify(token, expectedRoomID string, expectedSubjectID int64) (*Claims, error) {
	raw, err := encoding.DecodeString(token)
	if err != nil {
		return nil, ErrTampered
	}
	if len(raw) <= sha256.Size {
		return nil, ErrTampered
	}

	payload, mac := raw[:len(raw)-sha256.Size], raw[len(raw)-sha256.Size:]
	if !hmac.Equal(mac, s.sign(payload)) {
		return nil, ErrTampered
	}

	var claims Claims
	if err := json.Unmarshal(payload, &claims); err != nil {
		return nil, ErrTampered
	}

	if s.now().Unix() > claims.ExpiresAt {
		return nil, ErrExpired
	}

	if claims.RoomID != expectedRoomID || claims.SubjectID != expectedSubjectID {
		return nil, ErrBindingMismatch
	}

	return &claims, nil
}

func (s *Service) sign(payload []byte) []byte {
	h := hmac.New(sha256.New, s.secret)
	h.Write(payload)
	return h.Sum(nil)
}
