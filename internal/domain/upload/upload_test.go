package upload

import (
	"errors"
	"testing"

	"github.com/kailas-cloud/menusearch/internal/domain"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		filename string
		want     error
	}{
		{"menu.pdf", nil},
		{"MENU.PDF", nil},
		{"carta.jpeg", nil},
		{"foto.JPG", nil},
		{"scan.png", nil},
		{"", domain.ErrInvalidUpload},
		{"   ", domain.ErrInvalidUpload},
		{"menu.exe", domain.ErrUnsupportedFileType},
		{"menu.webp", domain.ErrUnsupportedFileType},
		{"menu", domain.ErrUnsupportedFileType},
		{"menu.pdf.exe", domain.ErrUnsupportedFileType},
	}
	for _, tc := range tests {
		err := Validate(tc.filename)
		if tc.want == nil && err != nil {
			t.Errorf("Validate(%q) = %v, want nil", tc.filename, err)
		}
		if tc.want != nil && !errors.Is(err, tc.want) {
			t.Errorf("Validate(%q) = %v, want %v", tc.filename, err, tc.want)
		}
	}
}

func TestContentType(t *testing.T) {
	tests := map[string]string{
		"a.pdf":  "application/pdf",
		"a.PNG":  "image/png",
		"a.jpg":  "image/jpeg",
		"a.jpeg": "image/jpeg",
		"a.webp": "",
		"a":      "",
	}
	for name, want := range tests {
		if got := ContentType(name); got != want {
			t.Errorf("ContentType(%q) = %q, want %q", name, got, want)
		}
	}
}

func TestSecureFilename(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"menu.pdf", "menu.pdf"},
		{"My Menu 2024.pdf", "My_Menu_2024.pdf"},
		{"../../etc/passwd.pdf", "etc_passwd.pdf"},
		{`C:\carta\día.jpg`, "C_carta_dia.jpg"},
		{"menú español.png", "menu_espanol.png"},
		{"  .hidden.pdf", "hidden.pdf"},
		{"a$b%c.pdf", "abc.pdf"},
		{"日本.pdf", "pdf"},
	}
	for _, tc := range tests {
		if got := SecureFilename(tc.in); got != tc.want {
			t.Errorf("SecureFilename(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestBlobPath(t *testing.T) {
	const id = "0f8fad5b-d9cb-469f-a165-70867728950e"
	tests := []struct {
		prefix   string
		filename string
		want     string
	}{
		{"", "menu.pdf", id + "_menu.pdf"},
		{"menus", "menu.pdf", "menus/" + id + "_menu.pdf"},
		{"/menus/2024/", "Carta Verano.jpg", "menus/2024/" + id + "_Carta_Verano.jpg"},
		{"", "日本.pdf", id + "_upload.pdf"},
	}
	for _, tc := range tests {
		if got := BlobPath(tc.prefix, id, tc.filename); got != tc.want {
			t.Errorf("BlobPath(%q, %q) = %q, want %q", tc.prefix, tc.filename, got, tc.want)
		}
	}
}
