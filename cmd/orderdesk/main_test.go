package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/orderdesk/orderdesk/internal/ingest"
	"github.com/orderdesk/orderdesk/internal/pagination"
	"github.com/orderdesk/orderdesk/internal/pagination/sessionstore"
	"github.com/orderdesk/orderdesk/internal/storage"
	"github.com/orderdesk/orderdesk/internal/storage/memory"
	"github.com/orderdesk/orderdesk/pkg/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func workdir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	return dir
}

func TestImport(t *testing.T) {
	dir := workdir(t)
	file := filepath.Join(dir, "orders.csv")
	require.NoError(t, os.WriteFile(file, []byte("Code,Order Date,Order Number\nA-1,2024-05-01,SO-1\n,2024-05-02,SO-2\nA-3,2024-05-03,SO-3\n"), 0o644))

	out, err := run(t, "import", "--file", file)
	require.NoError(t, err)
	assert.Contains(t, out, "Imported 2 orders (1 rows skipped)")
	assert.Contains(t, out, "Page 1 (2 orders)")
	assert.Less(t, strings.Index(out, "A-3"), strings.Index(out, "A-1"), "newest first")

	out, err = run(t, "import", "-f", file, "--json")
	require.NoError(t, err)
	var res ingest.Result
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, 2, res.Accepted)
	assert.Len(t, res.Fingerprint, 64)

	var withPage struct {
		FirstPage pagination.Page `json:"firstPage"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &withPage))
	assert.Equal(t, 1, withPage.FirstPage.Number)
	require.Len(t, withPage.FirstPage.Records, 2)
	assert.Equal(t, "A-3", withPage.FirstPage.Records[0].Code)
}

func TestImport_Errors(t *testing.T) {
	dir := workdir(t)

	_, err := run(t, "import")
	require.Error(t, err, "--file is required")

	_, err = run(t, "import", "--file", filepath.Join(dir, "missing.csv"))
	require.Error(t, err)

	blank := filepath.Join(dir, "blank.csv")
	require.NoError(t, os.WriteFile(blank, []byte("Code,Status\n,Open\n"), 0o644))
	_, err = run(t, "import", "--file", blank)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no valid records")
}

func TestList_EmptyStore(t *testing.T) {
	workdir(t)

	out, err := run(t, "list")
	require.NoError(t, err)
	assert.Equal(t, "Page 1 (0 orders)\n", out)

	out, err = run(t, "list", "--field", "Order Number", "--value", "SO-1", "--json")
	require.NoError(t, err)
	var page struct {
		Number  int  `json:"number"`
		HasNext bool `json:"hasNext"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &page))
	assert.Equal(t, 1, page.Number)
	assert.False(t, page.HasNext)
}

func TestList_Errors(t *testing.T) {
	workdir(t)

	_, err := run(t, "list", "--field", "Colour", "--value", "red")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown field")

	_, err = run(t, "list", "--field", "Order Number", "--value", "  ")
	require.Error(t, err)

	_, err = run(t, "list", "--field", "Order Number")
	require.Error(t, err, "--value must accompany --field")

	_, err = run(t, "list", "--pages", "0")
	require.Error(t, err)
}

func TestWalkPages(t *testing.T) {
	store := memory.New(model.FieldOrderDate)
	batch := map[string]model.OrderRecord{}
	for i := 0; i < 5; i++ {
		code := fmt.Sprintf("W%02d", i)
		batch[storage.RecordPath(code)] = model.OrderRecord{Code: code, OrderDate: fmt.Sprintf("2024-01-%02d", i+1)}
	}
	require.NoError(t, store.Update(context.Background(), batch))

	cfg := pagination.DefaultConfig()
	cfg.BrowsePageSize = 2
	sessions := pagination.NewManager(pagination.NewEngine(store, cfg, nil), sessionstore.NewMemoryStore(time.Minute), nil)

	var seen [][]string
	walk := func(pages int) {
		seen = nil
		err := walkPages(context.Background(), sessions, model.BrowseQuery(), pages, func(s pagination.Session) error {
			codes := []string{}
			for _, r := range s.Records {
				codes = append(codes, r.Code)
			}
			seen = append(seen, codes)
			return nil
		})
		require.NoError(t, err)
	}

	walk(10)
	assert.Equal(t, [][]string{{"W04", "W03"}, {"W02", "W01"}, {"W00"}}, seen)

	walk(2)
	assert.Len(t, seen, 2)
}

func TestIndexesEnsure(t *testing.T) {
	workdir(t)

	out, err := run(t, "indexes", "ensure")
	require.NoError(t, err)
	assert.Contains(t, out, "Indexes ensured on memory backend")
}

func TestBadConfig(t *testing.T) {
	dir := workdir(t)
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "config"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config", "config.yml"), []byte("storage:\n  backend: postgres\n"), 0o644))

	_, err := run(t, "list")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "storage.backend")
}

func TestPrintPage(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printPage(&buf, 2, nil))
	assert.Equal(t, "Page 2 (0 orders)\n", buf.String())
}
