package validator

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidateRegister(t *testing.T) {
	t.Parallel()

	errs := ValidateRegister("a@example.com", "alice", "Alice", "longenough")
	require.False(t, errs.HasErrors())

	errs = ValidateRegister("not-an-email", "al", "", "short")
	require.True(t, errs.HasErrors())
	require.Contains(t, errs, "email")
	require.Contains(t, errs, "username")
	require.Contains(t, errs, "display_name")
	require.Contains(t, errs, "password")

	errs = ValidateRegister("a@example.com", "bad name!", "Alice", "longenough")
	require.Contains(t, errs, "username")
}

func TestValidateMessageText(t *testing.T) {
	t.Parallel()

	require.False(t, ValidateMessageText("hello").HasErrors())
	require.True(t, ValidateMessageText("").HasErrors())
	require.True(t, ValidateMessageText("   ").HasErrors())
	require.True(t, ValidateMessageText(strings.Repeat("x", maxTextLength+1)).HasErrors())
	require.False(t, ValidateMessageText(strings.Repeat("x", maxTextLength)).HasErrors())
}

func TestValidateMediaURLs(t *testing.T) {
	t.Parallel()

	require.False(t, ValidateMediaURLs([]string{"https://cdn.example.com/a.jpg"}).HasErrors())
	require.True(t, ValidateMediaURLs(nil).HasErrors())
	require.True(t, ValidateMediaURLs([]string{""}).HasErrors())

	many := make([]string, maxMediaPerSend+1)
	for i := range many {
		many[i] = "https://cdn.example.com/x.jpg"
	}
	require.True(t, ValidateMediaURLs(many).HasErrors())
}

func TestValidateGroupName(t *testing.T) {
	t.Parallel()

	require.False(t, ValidateGroupName("weekend plans").HasErrors())
	require.True(t, ValidateGroupName("").HasErrors())
	require.True(t, ValidateGroupName("  ").HasErrors())
	require.True(t, ValidateGroupName(strings.Repeat("x", maxGroupName+1)).HasErrors())
}

func TestValidateCaption(t *testing.T) {
	t.Parallel()

	require.False(t, ValidateCaption(nil).HasErrors())
	short := "nice"
	require.False(t, ValidateCaption(&short).HasErrors())
	long := strings.Repeat("x", maxCaptionLength+1)
	require.True(t, ValidateCaption(&long).HasErrors())
}
