package lifecycle

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"math/big"
	"strconv"
	"strings"
	"time"

	"hrms/apperror"
	"hrms/models"
)

const keyAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// newEmployeeKey returns EMP-<base36 millis>-<6 random base36 chars>.
func newEmployeeKey(now time.Time) (string, error) {
	suffix := make([]byte, 6)
	max := big.NewInt(int64(len(keyAlphabet)))
	for i := range suffix {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		suffix[i] = keyAlphabet[n.Int64()]
	}
	stamp := strings.ToUpper(strconv.FormatInt(now.UnixMilli(), 36))
	return "EMP-" + stamp + "-" + string(suffix), nil
}

// newApprovalToken returns the raw token handed out in links and the hash that is stored.
func newApprovalToken() (raw, hash string, err error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", "", err
	}
	raw = hex.EncodeToString(buf)
	return raw, hashToken(raw), nil
}

func hashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

var errTokenExpired = apperror.Expired("Approval link has expired!")

// verifyApprovalToken checks raw against the stored hash and expiry.
func verifyApprovalToken(rec *models.Onboarding, raw string, now time.Time) error {
	if rec.ApprovalTokenHash == "" {
		return apperror.Conflict("Approval link is invalid or has already been used!")
	}
	got := hashToken(raw)
	if subtle.ConstantTimeCompare([]byte(got), []byte(rec.ApprovalTokenHash)) != 1 {
		return apperror.Unauthenticated("Invalid approval token!")
	}
	if rec.ApprovalTokenExpiry == nil || !now.Before(*rec.ApprovalTokenExpiry) {
		return errTokenExpired
	}
	return nil
}
