package types

import (
	"errors"
	"strings"
	"testing"
)

func TestKeyValidator(t *testing.T) {
	tests := []struct {
		name    string
		config  KeyValidationConfig
		key     string
		wantErr bool
	}{
		{
			name:    "valid simple key",
			config:  DefaultKeyValidationConfig(),
			key:     "skill:fireball",
			wantErr: false,
		},
		{
			name:    "empty key rejected by default",
			config:  DefaultKeyValidationConfig(),
			key:     "",
			wantErr: true,
		},
		{
			name:    "empty key allowed when configured",
			config:  KeyValidationConfig{AllowEmpty: true},
			key:     "",
			wantErr: false,
		},
		{
			name:    "key at max length",
			config:  KeyValidationConfig{MaxKeyLength: 10, AllowWhitespace: true, AllowControlChars: true},
			key:     strings.Repeat("a", 10),
			wantErr: false,
		},
		{
			name:    "key over max length",
			config:  KeyValidationConfig{MaxKeyLength: 10, AllowWhitespace: true, AllowControlChars: true},
			key:     strings.Repeat("a", 11),
			wantErr: true,
		},
		{
			name:    "invalid UTF-8",
			config:  DefaultKeyValidationConfig(),
			key:     "bad\xff\xfekey",
			wantErr: true,
		},
		{
			name:    "control character rejected",
			config:  DefaultKeyValidationConfig(),
			key:     "bad\x00key",
			wantErr: true,
		},
		{
			name:    "whitespace allowed by default",
			config:  DefaultKeyValidationConfig(),
			key:     "skill tree",
			wantErr: false,
		},
		{
			name:    "whitespace rejected when configured",
			config:  KeyValidationConfig{AllowWhitespace: false, AllowControlChars: true},
			key:     "skill tree",
			wantErr: true,
		},
		{
			name: "reserved prefix rejected",
			config: KeyValidationConfig{
				ReservedPrefixes: []string{"__internal:"},
				AllowWhitespace:  true,
			},
			key:     "__internal:state",
			wantErr: true,
		},
		{
			name: "non-reserved prefix passes",
			config: KeyValidationConfig{
				ReservedPrefixes: []string{"__internal:"},
				AllowWhitespace:  true,
			},
			key:     "public:state",
			wantErr: false,
		},
		{
			name:    "unicode key passes",
			config:  DefaultKeyValidationConfig(),
			key:     "skill:火球",
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewKeyValidator(tt.config).Validate(tt.key)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidKey) {
					t.Errorf("Validate(%q) = %v, want ErrInvalidKey", tt.key, err)
				}
			} else if err != nil {
				t.Errorf("Validate(%q) = %v, want nil", tt.key, err)
			}
		})
	}
}
