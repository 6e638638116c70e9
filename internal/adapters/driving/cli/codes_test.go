package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vnexus-labs/chronicle/internal/core/domain"
)

func TestCodesImportCmd_LoadsCodebookIntoStore(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	codebook := `[
		{"code": "C16.9", "kor_name": "위암", "eng_name": "Malignant neoplasm of stomach", "category": "신생물"},
		{"code": "e11", "kor_name": "2형 당뇨병"},
		{"code": "I21.0", "kor_name": "급성 심근경색증", "deprecated": true, "replaced_by": "i21.4"},
		{"code": "", "kor_name": "코드 없는 행"}
	]`
	path := filepath.Join(t.TempDir(), "codebook.json")
	require.NoError(t, os.WriteFile(path, []byte(codebook), 0o600))

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"codes", "import", path})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	require.NoError(t, rootCmd.Execute())
	assert.Contains(t, buf.String(), "Imported 3 code(s)")

	ctx := context.Background()
	entry, err := codeStore.Get(ctx, "C16.9")
	require.NoError(t, err)
	assert.Equal(t, "위암", entry.KorName)
	assert.Equal(t, "신생물", entry.Category)

	// Codes are normalised to upper case on import.
	lowered, err := codeStore.Get(ctx, "E11")
	require.NoError(t, err)
	assert.Equal(t, "2형 당뇨병", lowered.KorName)

	deprecated, err := codeStore.Get(ctx, "I21.0")
	require.NoError(t, err)
	assert.Equal(t, "I21.4", deprecated.ReplacedBy)

	count, err := codeStore.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestCodesImportCmd_RejectsMalformedCodebook(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"not": "an array"}`), 0o600))

	rootCmd.SetOut(new(bytes.Buffer))
	rootCmd.SetErr(new(bytes.Buffer))
	rootCmd.SetArgs([]string{"codes", "import", path})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse codebook")
}

func TestCodesLookupCmd_ResolvesDeprecatedCode(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	ctx := context.Background()
	require.NoError(t, codeStore.Put(ctx, domain.DiseaseCode{
		Code: "I21.0", KorName: "급성 심근경색증", Deprecated: true, ReplacedBy: "I21.4",
	}))
	require.NoError(t, codeStore.Put(ctx, domain.DiseaseCode{
		Code: "I21.4", KorName: "급성 심내막하 심근경색증",
	}))

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"codes", "lookup", "i21.0"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	require.NoError(t, rootCmd.Execute())
	out := buf.String()
	assert.Contains(t, out, "I21.4")
	assert.Contains(t, out, "resolved from deprecated I21.0")
}

func TestCodesLookupCmd_UnknownCode(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	rootCmd.SetOut(new(bytes.Buffer))
	rootCmd.SetErr(new(bytes.Buffer))
	rootCmd.SetArgs([]string{"codes", "lookup", "Z99.9"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not in the index")
}
