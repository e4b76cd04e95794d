package storage

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestValidateExtension(t *testing.T) {
	tests := []struct {
		filename string
		ok       bool
	}{
		{"photo.jpg", true},
		{"photo.jpeg", true},
		{"photo.png", true},
		{"animation.gif", true},
		{"clip.mp4", true},
		{"PHOTO.JPG", true},
		{"photo.Png", true},
		{"malware.exe", false},
		{"document.pdf", false},
		{"archive.tar.gz", false},
		{"noextension", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			err := ValidateExtension(tt.filename)
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrBadExtension)
			}
		})
	}
}

func TestObjectKey(t *testing.T) {
	d := time.Now()
	prefix := fmt.Sprintf("uploads/%d/%02d/%02d/", d.Year(), d.Month(), d.Day())

	key := objectKey("vacation.JPG")
	assert.True(t, strings.HasPrefix(key, prefix), "got %q", key)
	assert.True(t, strings.HasSuffix(key, ".jpg"), "got %q", key)
}

func TestObjectKey_Unique(t *testing.T) {
	assert.NotEqual(t, objectKey("a.png"), objectKey("a.png"))
}

func TestURLFor(t *testing.T) {
	u := &S3Uploader{bucket: "camp-images", region: "us-east-1"}
	assert.Equal(t,
		"https://camp-images.s3.us-east-1.amazonaws.com/uploads/x.jpg",
		u.urlFor("uploads/x.jpg"))

	u.publicURL = "https://cdn.example.com/"
	assert.Equal(t, "https://cdn.example.com/uploads/x.jpg", u.urlFor("uploads/x.jpg"))
}
