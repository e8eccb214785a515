package utils

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"hrms/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateOTP(t *testing.T) {
	otp, err := GenerateOTP()
	require.NoError(t, err)
	assert.Regexp(t, `^[0-9]{6}$`, otp)
}

func TestMaskAadhaar(t *testing.T) {
	assert.Equal(t, "XXXX-XXXX-9012", MaskAadhaar("123456789012"))
	assert.Equal(t, "XXXX-XXXX-9012", MaskAadhaar("1234 5678 9012"))
	assert.Equal(t, "", MaskAadhaar(""))
	assert.Equal(t, "", MaskAadhaar("12"))
}

// smallest valid PNG header is enough for sniffing
var pngBytes = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 13, 'I', 'H', 'D', 'R'}

func TestDocumentStoreSave(t *testing.T) {
	dir := t.TempDir()
	store := NewDocumentStore(dir, 1024)

	doc, err := store.Save(pngBytes, "../../me.png")
	require.NoError(t, err)
	assert.Equal(t, "me.png", doc.Filename)
	assert.Equal(t, "image/png", doc.MimeType)
	assert.Equal(t, int64(len(pngBytes)), doc.Size)
	assert.Equal(t, ".png", filepath.Ext(doc.StorageRef))

	onDisk, err := os.ReadFile(filepath.Join(dir, doc.StorageRef))
	require.NoError(t, err)
	assert.Equal(t, pngBytes, onDisk)
	assert.Equal(t, "/uploads/"+doc.StorageRef, GetFileURL(doc.StorageRef))

	require.NoError(t, store.Remove(doc.StorageRef))
	require.NoError(t, store.Remove(doc.StorageRef))

	_, err = store.Save([]byte("just some text"), "notes.txt")
	assert.ErrorIs(t, err, ErrUnsupportedFile)

	_, err = store.Save(make([]byte, 2048), "big.bin")
	assert.ErrorIs(t, err, ErrFileTooLarge)
}

func TestLMSClient(t *testing.T) {
	var got LMSAccount
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "secret", r.Header.Get("x-api-key"))
		switch r.URL.Path {
		case "/users":
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"success":true,"data":{"userId":"lms-42"}}`))
		case "/users/lms-42/deactivate":
			w.WriteHeader(http.StatusNoContent)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	lms := NewLMSClient(srv.URL, "secret")
	id, err := lms.CreateAccount(context.Background(), LMSAccount{EmployeeKey: "EMP-1-ABCDEF", Name: "Ravi"})
	require.NoError(t, err)
	assert.Equal(t, "lms-42", id)
	assert.Equal(t, "EMP-1-ABCDEF", got.EmployeeKey)

	require.NoError(t, lms.DeactivateAccount(context.Background(), "lms-42"))
	assert.Error(t, lms.DeactivateAccount(context.Background(), "missing"))
}

func TestIdentityClient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/aadhaar/link":
			_, _ = w.Write([]byte(`{"success":true,"data":{"clientId":"c-1","url":"https://kyc.example.com/c-1"}}`))
		case "/aadhaar/status/c-1":
			_, _ = w.Write([]byte(`{"success":true,"data":{"status":"verified","aadhaarNumber":"123456789012","profile":{"name":"Ravi"}}}`))
		case "/pan/verify":
			_, _ = w.Write([]byte(`{"success":false,"message":"registry down"}`))
		}
	}))
	defer srv.Close()

	idp := NewIdentityClient(srv.URL, "k", "s", "2.0")
	link, err := idp.InitiateLink(context.Background(), "https://hr.example.com/back")
	require.NoError(t, err)
	assert.Equal(t, "c-1", link.ClientID)

	st, err := idp.CheckStatus(context.Background(), "c-1")
	require.NoError(t, err)
	assert.True(t, st.Verified())
	assert.Equal(t, "c-1", st.ClientID)
	assert.Equal(t, "Ravi", st.Profile["name"])

	_, err = idp.VerifyPAN(context.Background(), "ABCDE1234F")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "registry down")
}

func TestEmailTemplatesEscape(t *testing.T) {
	c := ApplicationRejectedEmail("<b>Ravi</b>", "missing docs")
	assert.Contains(t, c.HTML, "&lt;b&gt;Ravi&lt;/b&gt;")
	assert.NotContains(t, c.HTML, "<b>Ravi</b>")

	link := ApprovalRequestEmail("Coach", "Ravi", "Indiranagar", "Line Cook", "https://hr.example.com/public/approvals/1?token=abc")
	assert.Contains(t, link.HTML, "token=abc")
}

func TestPresentOnboardingMasks(t *testing.T) {
	rec := &models.Onboarding{
		AadhaarNumber:   "123456789012",
		IdentityProfile: map[string]interface{}{"name": "Ravi", "aadhaarNumber": "123456789012"},
	}
	out := PresentOnboarding(rec)
	assert.Equal(t, "XXXX-XXXX-9012", out.AadhaarNumber)
	assert.NotContains(t, out.IdentityProfile, "aadhaarNumber")
	assert.Equal(t, "Ravi", out.IdentityProfile["name"])
	assert.Equal(t, "123456789012", rec.AadhaarNumber)
}
