package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"threadhub/pkg/models"
)

func TestValidateContent(t *testing.T) {
	tests := []struct {
		name    string
		content string
		min     int
		max     int
		want    string
		wantErr error
	}{
		{name: "trims surrounding space", content: "  hello  ", min: 1, max: 10, want: "hello"},
		{name: "whitespace only", content: " \n\t ", min: 1, max: 10, wantErr: models.ErrEmptyContent},
		{name: "empty with no bounds", content: "", wantErr: models.ErrEmptyContent},
		{name: "below minimum", content: "hi", min: 3, max: 10, wantErr: models.ErrContentTooShort},
		{name: "above maximum", content: "hello world", min: 1, max: 5, wantErr: models.ErrContentTooLong},
		{name: "counts runes not bytes", content: "привет", min: 1, max: 6, want: "привет"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ValidateContent(tt.content, tt.min, tt.max)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", Truncate("short", 10))
	assert.Equal(t, "abcd…", Truncate("abcdefgh", 5))
	assert.Equal(t, "…", Truncate("abc", 1))
	assert.Equal(t, "abc", Truncate("abc", 0))
}

func TestTimeAgoFrom(t *testing.T) {
	now := time.Date(2024, 5, 20, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, "just now", TimeAgoFrom(now.Add(-10*time.Second), now))
	assert.Equal(t, "1 minute ago", TimeAgoFrom(now.Add(-time.Minute), now))
	assert.Equal(t, "5 minutes ago", TimeAgoFrom(now.Add(-5*time.Minute), now))
	assert.Equal(t, "3 hours ago", TimeAgoFrom(now.Add(-3*time.Hour), now))
	assert.Equal(t, "yesterday", TimeAgoFrom(now.Add(-25*time.Hour), now))
	assert.Equal(t, "2 weeks ago", TimeAgoFrom(now.Add(-15*24*time.Hour), now))
}
