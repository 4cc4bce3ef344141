package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTitleFromFilename(t *testing.T) {
	tests := []struct {
		filename string
		want     string
	}{
		{"employment_agreement.docx", "employment agreement"},
		{"leave-policy.md", "leave policy"},
		{"/some/dir/Code_of-Conduct.txt", "Code of Conduct"},
		{"plain", "plain"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, TitleFromFilename(tt.filename), tt.filename)
	}
}
