package cli

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestValidator_ValidateConversationID(t *testing.T) {
	v := NewValidator()

	tests := []struct {
		name    string
		id      string
		wantErr bool
		errMsg  string
	}{
		{
			name:    "valid uuid",
			id:      "6f1c2a9e-5d3b-4c8a-9e7f-0a1b2c3d4e5f",
			wantErr: false,
		},
		{
			name:    "empty id",
			id:      "",
			wantErr: true,
			errMsg:  "--id flag is required",
		},
		{
			name:    "not a uuid",
			id:      "42",
			wantErr: true,
			errMsg:  "invalid conversation id",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.ValidateConversationID(tt.id)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateConversationID() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if tt.wantErr && !strings.Contains(err.Error(), tt.errMsg) {
				t.Errorf("ValidateConversationID() error message = %v, want to contain %v", err.Error(), tt.errMsg)
			}
		})
	}
}

func TestValidator_ValidateDirectory(t *testing.T) {
	v := NewValidator()

	// Create temp directory for testing
	tempDir, err := os.MkdirTemp("", "test-validate-dir-*")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(tempDir)

	// Create a temp file for testing
	tempFile := filepath.Join(tempDir, "testfile.txt")
	if err := os.WriteFile(tempFile, []byte("test"), 0644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		path    string
		wantErr bool
		errMsg  string
	}{
		{
			name:    "valid directory",
			path:    tempDir,
			wantErr: false,
		},
		{
			name:    "empty path allowed",
			path:    "",
			wantErr: false,
		},
		{
			name:    "file instead of directory",
			path:    tempFile,
			wantErr: true,
			errMsg:  "path is not a directory",
		},
		{
			name:    "non-existent path",
			path:    "/non/existent/path/that/should/not/exist",
			wantErr: true,
			errMsg:  "invalid directory",
		},
		{
			name:    "current directory",
			path:    ".",
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.ValidateDirectory(tt.path)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateDirectory() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if tt.wantErr && tt.errMsg != "" && !strings.Contains(err.Error(), tt.errMsg) {
				t.Errorf("ValidateDirectory() error message = %v, want to contain %v", err.Error(), tt.errMsg)
			}
		})
	}
}

func TestValidator_ValidateFileAndImage(t *testing.T) {
	v := NewValidator()

	tempDir, err := os.MkdirTemp("", "test-validate-file-*")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(tempDir)

	textFile := filepath.Join(tempDir, "notes.txt")
	imageFile := filepath.Join(tempDir, "beach.JPG")
	for _, f := range []string{textFile, imageFile} {
		if err := os.WriteFile(f, []byte("test content"), 0644); err != nil {
			t.Fatal(err)
		}
	}

	tests := []struct {
		name     string
		path     string
		fileErr  string
		imageErr string
	}{
		{
			name: "image file",
			path: imageFile,
		},
		{
			name:     "text file",
			path:     textFile,
			imageErr: "not a supported image type",
		},
		{
			name:     "empty path",
			path:     "",
			fileErr:  "file path cannot be empty",
			imageErr: "file path cannot be empty",
		},
		{
			name:     "directory instead of file",
			path:     tempDir,
			fileErr:  "path is a directory, not a file",
			imageErr: "path is a directory, not a file",
		},
		{
			name:     "non-existent file",
			path:     "/non/existent/file.jpg",
			fileErr:  "file not found",
			imageErr: "file not found",
		},
	}

	check := func(t *testing.T, fn string, err error, want string) {
		t.Helper()
		if want == "" {
			if err != nil {
				t.Errorf("%s() error = %v, want nil", fn, err)
			}
			return
		}
		if err == nil || !strings.Contains(err.Error(), want) {
			t.Errorf("%s() error = %v, want to contain %q", fn, err, want)
		}
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			check(t, "ValidateFile", v.ValidateFile(tt.path), tt.fileErr)
			check(t, "ValidateImage", v.ValidateImage(tt.path), tt.imageErr)
		})
	}
}

func TestValidator_ResolvePath(t *testing.T) {
	v := NewValidator()

	cwd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		path    string
		want    string
		wantErr bool
	}{
		{
			name: "empty path",
			path: "",
			want: "",
		},
		{
			name: "current directory",
			path: ".",
			want: cwd,
		},
		{
			name: "absolute path",
			path: "/usr/local/bin",
			want: "/usr/local/bin",
		},
		{
			name: "relative path",
			path: "subdir",
			want: filepath.Join(cwd, "subdir"),
		},
		{
			name: "relative path with parent",
			path: "../test",
			want: filepath.Join(filepath.Dir(cwd), "test"),
		},
		{
			name: "home directory",
			path: "~/Pictures/inbox",
			want: filepath.Join(homeDir, "Pictures", "inbox"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := v.ResolvePath(tt.path)
			if (err != nil) != tt.wantErr {
				t.Errorf("ResolvePath() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if got != tt.want {
				t.Errorf("ResolvePath() = %v, want %v", got, tt.want)
			}
		})
	}
}
