package extract

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/encoding/unicode"
)

func TestDecode(t *testing.T) {
	gbk, err := simplifiedchinese.GBK.NewEncoder().Bytes([]byte("甲方与乙方签订本合同。"))
	require.NoError(t, err)
	utf16le, err := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewEncoder().Bytes([]byte("Party A 甲方"))
	require.NoError(t, err)
	utf16be, err := unicode.UTF16(unicode.BigEndian, unicode.UseBOM).NewEncoder().Bytes([]byte("Party B"))
	require.NoError(t, err)

	tests := []struct {
		name string
		in   []byte
		want string
		enc  string
	}{
		{"utf8", []byte("This Agreement 本合同"), "This Agreement 本合同", "utf-8"},
		{"utf8 bom", append([]byte{0xEF, 0xBB, 0xBF}, "Notice"...), "Notice", "utf-8"},
		{"utf16 le", utf16le, "Party A 甲方", "utf-16"},
		{"utf16 be", utf16be, "Party B", "utf-16"},
		{"gbk", gbk, "甲方与乙方签订本合同。", "gbk"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, enc, err := Decode(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.enc, enc)
		})
	}
}

func TestDecodeRejectsBinary(t *testing.T) {
	_, _, err := Decode([]byte("abc\x00def"))
	assert.True(t, errors.Is(err, ErrUnsupported))
}

func TestBytes(t *testing.T) {
	doc, err := Bytes([]byte("The parties agree as follows."))
	require.NoError(t, err)
	assert.Equal(t, KindText, doc.Kind)
	assert.Equal(t, "The parties agree as follows.", doc.Text)

	_, err = Bytes(nil)
	assert.ErrorIs(t, err, ErrEmpty)
}

func TestBytesRejectsImagesAndArchives(t *testing.T) {
	png := []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A, 0, 0, 0, 0x0D, 'I', 'H', 'D', 'R'}
	gz := []byte{0x1F, 0x8B, 0x08, 0, 0, 0, 0, 0}

	_, err := Bytes(png)
	assert.ErrorIs(t, err, ErrUnsupported)
	_, err = Bytes(gz)
	assert.ErrorIs(t, err, ErrUnsupported)
}

func TestBytesBrokenPDF(t *testing.T) {
	_, err := Bytes([]byte("%PDF-1.4\nnot really a pdf"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read pdf")
}

func TestFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nda.txt")
	require.NoError(t, os.WriteFile(path, []byte("Confidential information shall not be disclosed."), 0o644))

	doc, err := File(path)
	require.NoError(t, err)
	assert.Equal(t, path, doc.Path)
	assert.Equal(t, "utf-8", doc.Encoding)
	assert.Contains(t, doc.Text, "Confidential")

	_, err = File(filepath.Join(dir, "missing.txt"))
	assert.True(t, os.IsNotExist(err))

	_, err = File(dir)
	assert.Error(t, err)

	empty := filepath.Join(dir, "empty.txt")
	require.NoError(t, os.WriteFile(empty, nil, 0o644))
	_, err = File(empty)
	assert.ErrorIs(t, err, ErrEmpty)
}
