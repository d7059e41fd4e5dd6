package errors

import (
	"testing"
)

func TestValidateURL(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"https", "https://example.com/path", false},
		{"http", "http://example.com/path", false},

		{"empty", "", true},
		{"ftp", "ftp://example.com", true},
		{"file", "file:///etc/passwd", true},
		{"javascript", "javascript:alert(1)", true},
		{"no scheme", "example.com", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateURL(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateURL(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidateDatasetURL(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
		code    Code
	}{
		{"https", "https://example.com/data.zarr", false, ""},
		{"gcs", "gs://bucket/image.ome.zarr", false, ""},
		{"s3", "s3://bucket/image.ome.zarr?region=us-east-1", false, ""},
		{"file url", "file:///data/image.zarr", false, ""},
		{"mem", "mem://", false, ""},
		{"relative path", "data/image.zarr", false, ""},
		{"absolute path", "/data/image.zarr", false, ""},

		{"empty", "", true, ErrCodeInvalidInput},
		{"blank", "   ", true, ErrCodeInvalidInput},
		{"newline", "https://example.com/\nx", true, ErrCodeInvalidInput},
		{"ftp", "ftp://example.com/x", true, ErrCodeUnsupported},
		{"no host", "https:///x", true, ErrCodeInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateDatasetURL(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ValidateDatasetURL(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if tt.wantErr && GetCode(err) != tt.code {
				t.Errorf("code = %s, want %s", GetCode(err), tt.code)
			}
		})
	}
}

func TestValidateKey(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"zarr.json", "zarr.json", false},
		{"nested", "0/.zarray", false},
		{"chunk", "0/c/0/0/0", false},
		{"dotted chunk", "0/0.0.0", false},
		{"empty", "", false},

		{"absolute", "/etc/passwd", true},
		{"traversal", "0/../../secret", true},
		{"backslash", "0\\.zarray", true},
		{"null byte", "0\x00", true},
		{"too long", string(make([]byte, 600)), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateKey(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateKey(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestErrorCodesAreUnique(t *testing.T) {
	codes := []Code{
		ErrCodeMetadataMissing,
		ErrCodeMetadataMalformed,
		ErrCodeThumbnailFailure,
		ErrCodeViewerStateConstruction,
		ErrCodeClassificationInconcl,
		ErrCodeProbeFailure,
		ErrCodeStale,
		ErrCodeInvalidInput,
		ErrCodeInvalidConfig,
		ErrCodeInvalidPath,
		ErrCodeNotFound,
		ErrCodeNetwork,
		ErrCodeTimeout,
		ErrCodeInternal,
		ErrCodeUnsupported,
	}

	seen := make(map[Code]bool)
	for _, code := range codes {
		if seen[code] {
			t.Errorf("Duplicate error code: %s", code)
		}
		seen[code] = true
	}
}
