package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/erp/books/internal/domain/inventory"
	"github.com/erp/books/internal/domain/shared"
	"github.com/erp/books/internal/infrastructure/api"
	"github.com/erp/books/internal/infrastructure/session"
	"github.com/erp/books/internal/testutil/fakeapi"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// harness runs commands against a fake backend with one shared session
type harness struct {
	t       *testing.T
	srv     *fakeapi.Server
	baseURL string
	config  string
	store   *session.MemoryStore
	dir     string
}

func newHarness(t *testing.T, opts fakeapi.Options) *harness {
	t.Helper()
	srv, baseURL := fakeapi.Start(t, opts)
	dir := t.TempDir()
	cfg := fmt.Sprintf(`
[app]
company_id = %q

[api]
base_url = %q
timeout = "5s"

[session]
store = "memory"

[log]
level = "error"

[storage]
backend = "local"
local_dir = %q
`, fakeapi.DefaultCompanyID, baseURL, filepath.Join(dir, "backups"))
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(cfg), 0o600))

	return &harness{t: t, srv: srv, baseURL: baseURL, config: path, store: session.NewMemoryStore(), dir: dir}
}

// run executes one command line and returns what it printed
func (h *harness) run(stdin string, args ...string) (string, string, error) {
	h.t.Helper()
	var stdout, stderr bytes.Buffer
	err := Execute(context.Background(), append([]string{"--config", h.config}, args...), Options{
		Stdin:        strings.NewReader(stdin),
		Stdout:       &stdout,
		Stderr:       &stderr,
		SessionStore: h.store,
	})
	return stdout.String(), stderr.String(), err
}

func (h *harness) mustRun(args ...string) string {
	h.t.Helper()
	out, errOut, err := h.run("", args...)
	require.NoError(h.t, err, "stderr: %s", errOut)
	return out
}

func (h *harness) login() {
	h.t.Helper()
	h.mustRun("login", "-u", fakeapi.DefaultUsername, "-p", fakeapi.DefaultPassword)
}

// client returns an api client with its own session, for looking up ids
func (h *harness) client() *api.Client {
	h.t.Helper()
	client, err := api.New(api.Options{BaseURL: h.baseURL})
	require.NoError(h.t, err)
	mgr := session.NewManager(session.NewMemoryStore(), client.Auth(), session.KeyFor(h.baseURL))
	client.SetTokenSource(mgr)
	_, err = mgr.Login(context.Background(), fakeapi.DefaultUsername, fakeapi.DefaultPassword)
	require.NoError(h.t, err)
	return client
}

// rowWith returns the fields of the first output line containing match
func rowWith(t *testing.T, out, match string) []string {
	t.Helper()
	for _, line := range strings.Split(out, "\n") {
		if strings.Contains(line, match) {
			return strings.Fields(line)
		}
	}
	t.Fatalf("no line containing %q in:\n%s", match, out)
	return nil
}

// firstRow returns the fields of the first line below the table header
func firstRow(t *testing.T, out string) []string {
	t.Helper()
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.GreaterOrEqual(t, len(lines), 2, "no rows in:\n%s", out)
	return strings.Fields(lines[1])
}

func TestLogin_StoresSessionForLaterCommands(t *testing.T) {
	h := newHarness(t, fakeapi.Options{})

	out := h.mustRun("login", "-u", fakeapi.DefaultUsername, "-p", fakeapi.DefaultPassword)
	assert.Contains(t, out, "Signed in as admin")

	out = h.mustRun("vendors", "list")
	assert.Contains(t, out, "NAME")
	assert.Contains(t, out, "8 total")
}

func TestCommandFailure_LoggedWithCompany(t *testing.T) {
	h := newHarness(t, fakeapi.Options{})
	h.login()

	logPath := filepath.Join(h.dir, "books.log")
	cfg, err := os.ReadFile(h.config)
	require.NoError(t, err)
	cfg = []byte(strings.Replace(string(cfg), `level = "error"`,
		fmt.Sprintf("level = \"debug\"\nformat = \"json\"\noutput = %q", logPath), 1))
	require.NoError(t, os.WriteFile(h.config, cfg, 0o600))

	_, _, err = h.run("", "--yes", "orders", "transition", "PO-NOPE", "send")
	require.Error(t, err)

	logs, err := os.ReadFile(logPath)
	require.NoError(t, err)
	var failure map[string]any
	for _, line := range strings.Split(strings.TrimSpace(string(logs)), "\n") {
		var entry map[string]any
		if json.Unmarshal([]byte(line), &entry) == nil && entry["msg"] == "command failed" {
			failure = entry
		}
	}
	require.NotNil(t, failure, "logs:\n%s", logs)
	assert.Equal(t, "books orders transition", failure["command"])
	assert.Equal(t, fakeapi.DefaultCompanyID, failure["company_id"])
	assert.Contains(t, failure["error"], "PO-NOPE")
}

func TestLogin_ReadsPasswordFromStdin(t *testing.T) {
	h := newHarness(t, fakeapi.Options{})

	out, errOut, err := h.run(fakeapi.DefaultPassword+"\n", "login", "-u", fakeapi.DefaultUsername)
	require.NoError(t, err)
	assert.Contains(t, errOut, "Password:")
	assert.Contains(t, out, "Signed in")
}

func TestLogin_WrongPassword(t *testing.T) {
	h := newHarness(t, fakeapi.Options{})

	_, _, err := h.run("", "login", "-u", fakeapi.DefaultUsername, "-p", "nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "wrong username or password")
}

func TestCommands_WithoutSessionAskForLogin(t *testing.T) {
	h := newHarness(t, fakeapi.Options{})

	_, _, err := h.run("", "vendors", "list")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "books login")

	h.login()
	h.mustRun("logout")
	_, _, err = h.run("", "bills", "list")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "books login")
}

func TestCommands_RevokedRefreshAsksForLogin(t *testing.T) {
	h := newHarness(t, fakeapi.Options{})
	h.login()
	h.srv.ExpireAccessTokens()
	h.srv.RevokeRefreshTokens()

	_, _, err := h.run("", "inventory", "list")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "session has expired")
}

func TestCommands_UnknownCompany(t *testing.T) {
	h := newHarness(t, fakeapi.Options{})
	h.login()

	_, _, err := h.run("", "--company", "nope", "vendors", "list")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestVendors_CreateAndDelete(t *testing.T) {
	h := newHarness(t, fakeapi.Options{})
	h.login()

	out := h.mustRun("vendors", "create", "--name", "Zebulon", "--email", "ap@zebulon.test", "--terms", "Net 15")
	assert.Contains(t, out, "Vendor Zebulon created")
	assert.Equal(t, 9, h.srv.Count(fakeapi.DefaultCompanyID, "vendors"))

	out = h.mustRun("vendors", "list", "--search", "zebulon")
	id := rowWith(t, out, "Zebulon")[0]

	_, _, err := h.run("n\n", "vendors", "delete", id)
	assert.ErrorIs(t, err, ErrAborted)
	assert.Equal(t, 9, h.srv.Count(fakeapi.DefaultCompanyID, "vendors"))

	out, errOut, err := h.run("y\n", "vendors", "delete", id)
	require.NoError(t, err)
	assert.Contains(t, errOut, "Delete vendor "+id+"?")
	assert.Contains(t, out, "deleted")
	assert.Equal(t, 8, h.srv.Count(fakeapi.DefaultCompanyID, "vendors"))
}

func TestVendors_CreateRejectsBadEmail(t *testing.T) {
	h := newHarness(t, fakeapi.Options{})
	h.login()

	_, _, err := h.run("", "vendors", "create", "--name", "Bad", "--email", "not-an-email")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid input")
	assert.Equal(t, 8, h.srv.Count(fakeapi.DefaultCompanyID, "vendors"))
}

func TestBills_AgingIsPartialUntilFull(t *testing.T) {
	h := newHarness(t, fakeapi.Options{})
	h.login()

	out := h.mustRun("bills", "aging", "--page-size", "5")
	assert.Contains(t, out, "90+")
	assert.Contains(t, out, "partial:")

	out = h.mustRun("bills", "aging", "--full")
	assert.NotContains(t, out, "partial:")
	assert.Contains(t, out, "overdue")
}

func TestBills_ListAndCreate(t *testing.T) {
	h := newHarness(t, fakeapi.Options{})
	h.login()

	out := h.mustRun("bills", "list")
	assert.Contains(t, out, "15 total")

	vendors := h.mustRun("vendors", "list", "--status", "active")
	vendorID := firstRow(t, vendors)[0]

	out = h.mustRun("bills", "create", "--vendor", vendorID, "--number", "INV-77",
		"--date", "2026-03-01", "--line", "Paper: A4:10:4.50", "--line", "Toner:2:62")
	assert.Contains(t, out, "Bill INV-77 created for 169.00")
	assert.Equal(t, 16, h.srv.Count(fakeapi.DefaultCompanyID, "bills"))

	_, _, err := h.run("", "bills", "create", "--vendor", vendorID, "--date", "2026-03-01")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line_items")

	_, _, err = h.run("", "bills", "list", "--posted", "maybe")
	assert.Error(t, err)
}

func TestInventory_ListOverviewAndReorder(t *testing.T) {
	h := newHarness(t, fakeapi.Options{})
	h.login()

	out := h.mustRun("inventory", "list", "--sort", "value", "--desc")
	assert.Contains(t, out, "SKU-")
	assert.Contains(t, out, "20 total")

	out = h.mustRun("inventory", "overview")
	assert.Contains(t, out, "Items:         20")
	assert.NotContains(t, out, "partial")

	_, _, err := h.run("", "inventory", "list", "--status", "sideways")
	assert.Error(t, err)

	h.mustRun("inventory", "reorder")
}

func TestInventory_OverviewFlagsPageLocalCategories(t *testing.T) {
	h := newHarness(t, fakeapi.Options{Items: 30})
	h.login()

	out := h.mustRun("inventory", "overview")
	assert.Contains(t, out, "Items:         30")
	assert.Contains(t, out, "partial: categories cover the loaded page only")
	assert.NotContains(t, out, "totals cover the loaded page only")
}

func TestInventory_ReorderFallsBackToLoadedItems(t *testing.T) {
	h := newHarness(t, fakeapi.Options{})
	h.login()
	client := h.client()
	ctx := context.Background()

	items, err := client.Items().List(ctx, fakeapi.DefaultCompanyID, api.ItemParams{})
	require.NoError(t, err)
	require.NotEmpty(t, items.Items)
	item := items.Items[0]
	// Drain the item so it is certainly due for reorder
	_, err = client.Inventory().Adjust(ctx, fakeapi.DefaultCompanyID, inventoryDrain(item.ID, item.QuantityOnHand))
	require.NoError(t, err)

	h.srv.Inject(fakeapi.Route("GET", "/companies/:company_id/inventory/reorder"), fakeapi.Fault{Status: 503})
	out := h.mustRun("inventory", "reorder")
	assert.Contains(t, out, item.Name)
	assert.Contains(t, out, "partial:")
}

// inventoryDrain takes an item one unit below zero
func inventoryDrain(itemID string, onHand decimal.Decimal) inventory.AdjustmentInput {
	return inventory.AdjustmentInput{
		ItemID:         itemID,
		QuantityChange: onHand.Neg().Sub(decimal.NewFromInt(1)),
		Reason:         inventory.ReasonCount,
	}
}

func TestInventory_AdjustAndDelete(t *testing.T) {
	h := newHarness(t, fakeapi.Options{})
	h.login()
	client := h.client()

	items, err := client.Items().List(context.Background(), fakeapi.DefaultCompanyID, api.ItemParams{})
	require.NoError(t, err)
	item := items.Items[0]

	out := h.mustRun("inventory", "adjust", item.ID, "--by=-1", "--reason", "damage", "--memo", "dropped")
	assert.Contains(t, out, "Stock adjusted by -1")
	got, err := client.Items().Get(context.Background(), fakeapi.DefaultCompanyID, item.ID)
	require.NoError(t, err)
	assert.True(t, got.QuantityOnHand.Equal(item.QuantityOnHand.Sub(decimal.NewFromInt(1))))

	_, _, err = h.run("", "inventory", "adjust", item.ID, "--by", "0")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "quantity_change")

	_, _, err = h.run("", "inventory", "adjust", "missing", "--by", "3")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")

	h.mustRun("--yes", "inventory", "delete", item.ID)
	assert.Equal(t, 19, h.srv.Count(fakeapi.DefaultCompanyID, "items"))
}

func TestInventory_ExportThenImport(t *testing.T) {
	h := newHarness(t, fakeapi.Options{})
	h.login()
	file := filepath.Join(h.dir, "items.csv")

	out := h.mustRun("inventory", "export", "-f", "csv", "-o", file)
	assert.Contains(t, out, "Wrote")
	data, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "sku,name"))

	out = h.mustRun("inventory", "import", file)
	assert.Contains(t, out, "0 created, 20 updated, 0 skipped")

	yaml := h.mustRun("inventory", "export", "-f", "yaml")
	assert.Contains(t, yaml, "sku: SKU-")
}

func TestOrders_Lifecycle(t *testing.T) {
	h := newHarness(t, fakeapi.Options{})
	h.login()

	out := h.mustRun("orders", "list", "--status", "draft")
	row := firstRow(t, out)
	number := row[0]
	assert.Contains(t, row[len(row)-1], "send")

	_, _, err := h.run("", "orders", "transition", number, "receive")
	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrInvalidTransition)

	out = h.mustRun("orders", "transition", number, "send")
	assert.Contains(t, out, "send")

	_, _, err = h.run("", "orders", "transition", number, "teleport")
	assert.Error(t, err)

	_, _, err = h.run("n\n", "orders", "transition", number, "cancel")
	assert.ErrorIs(t, err, ErrAborted)

	h.mustRun("--yes", "orders", "transition", number, "cancel")
	h.mustRun("--yes", "orders", "delete", number)
	assert.Equal(t, 5, h.srv.Count(fakeapi.DefaultCompanyID, "purchase-orders"))

	_, _, err = h.run("", "orders", "delete", "PO-99999")
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestOrders_TransitionRefusedWhileShowingSamples(t *testing.T) {
	h := newHarness(t, fakeapi.Options{})
	h.login()
	h.srv.Inject(fakeapi.Route("GET", "/companies/:company_id/purchase-orders"), fakeapi.Fault{Status: 503})

	out, errOut, err := h.run("", "orders", "list")
	require.NoError(t, err)
	assert.Contains(t, errOut, "warning:")
	assert.Contains(t, out, "PO-1001")

	_, _, err = h.run("", "--yes", "orders", "transition", "PO-1001", "send")
	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrUnavailable)
	assert.Contains(t, err.Error(), "nothing was changed")
	assert.Equal(t, 6, h.srv.Count(fakeapi.DefaultCompanyID, "purchase-orders"))
}

func TestOrders_CreateAndEmail(t *testing.T) {
	h := newHarness(t, fakeapi.Options{})
	h.login()

	vendorID := firstRow(t, h.mustRun("vendors", "list", "--status", "active"))[0]
	out := h.mustRun("orders", "create", "--vendor", vendorID, "--line", "Widgets:100:1.25", "--memo", "restock")
	assert.Contains(t, out, "Purchase order created")
	assert.Equal(t, 7, h.srv.Count(fakeapi.DefaultCompanyID, "purchase-orders"))

	number := rowWith(t, h.mustRun("orders", "list", "--search", "restock"), "PO-")[0]
	h.mustRun("orders", "email", number, "--to", "buyer@vendor.test", "--subject", "Please confirm")

	emails := h.srv.Emails()
	require.Len(t, emails, 1)
	assert.Equal(t, []string{"buyer@vendor.test"}, emails[0].To)
	assert.Equal(t, "Please confirm", emails[0].Subject)

	_, _, err := h.run("", "orders", "email", number, "--to", "not-an-address")
	assert.Error(t, err)
}

func TestTemplates_ExportImportPreview(t *testing.T) {
	h := newHarness(t, fakeapi.Options{})
	h.login()

	out := h.mustRun("templates", "list", "--type", "invoice")
	row := firstRow(t, out)
	id := row[0]
	assert.Contains(t, out, "yes")

	file := filepath.Join(h.dir, "invoice.yaml")
	h.mustRun("templates", "export", id, file)
	out = h.mustRun("templates", "import", file)
	assert.Contains(t, out, "Imported as")
	assert.Equal(t, 5, h.srv.Count(fakeapi.DefaultCompanyID, "templates"))

	html := h.mustRun("templates", "preview", id)
	assert.Contains(t, html, "<!DOCTYPE html>")

	_, _, err := h.run("", "templates", "preview", id, "--pdf")
	assert.Error(t, err)

	_, _, err = h.run("", "--yes", "templates", "delete", id)
	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrInvalidTransition)

	_, _, err = h.run("", "templates", "list", "--type", "receipt")
	assert.Error(t, err)
}

func TestTemplates_LogoUpload(t *testing.T) {
	h := newHarness(t, fakeapi.Options{})
	h.login()

	id := firstRow(t, h.mustRun("templates", "list", "--type", "estimate"))[0]
	logo := filepath.Join(h.dir, "logo.png")
	require.NoError(t, os.WriteFile(logo, []byte("\x89PNG fake image"), 0o600))

	out := h.mustRun("templates", "logo", id, logo)
	assert.Contains(t, out, "Logo uploaded")

	_, _, err := h.run("", "templates", "logo", id, filepath.Join(h.dir, "missing.png"))
	assert.Error(t, err)
}

func TestBackup_CreateListRestoreIntoAnotherCompany(t *testing.T) {
	h := newHarness(t, fakeapi.Options{Companies: []string{fakeapi.DefaultCompanyID, "copy"}})
	h.srv.Reset("copy")
	h.login()

	out := h.mustRun("backup", "create")
	key := rowWith(t, out, "Created")[1]
	assert.True(t, strings.HasPrefix(key, fakeapi.DefaultCompanyID+"/"))

	out = h.mustRun("backup", "list")
	assert.Contains(t, out, key)

	out = h.mustRun("backup", "show", key)
	assert.Equal(t, "20", rowWith(t, out, "items")[1])

	_, _, err := h.run("n\n", "--company", "copy", "backup", "restore", key)
	assert.ErrorIs(t, err, ErrAborted)
	assert.Zero(t, h.srv.Count("copy", "vendors"))

	out = h.mustRun("--yes", "--company", "copy", "backup", "restore", key)
	assert.Equal(t, "8", rowWith(t, out, "vendors")[1])
	assert.Equal(t, 8, h.srv.Count("copy", "vendors"))
	assert.Equal(t, 20, h.srv.Count("copy", "items"))
	assert.Equal(t, 4, h.srv.Count("copy", "templates"))

	out = h.mustRun("--company", "copy", "backup", "list")
	assert.Contains(t, out, "No backups yet")
}

func TestUserError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"not confirmed", shared.ErrNotConfirmed, "aborted"},
		{"expired", fmt.Errorf("refresh: %w", shared.ErrSessionExpired), "books login"},
		{"no session", session.ErrNoSession, "books login"},
		{"validation", &shared.ValidationError{Fields: []shared.FieldError{{Field: "name", Message: "is required"}, {Field: "email", Message: "is invalid"}}}, "invalid input: name is required; email is invalid"},
		{"other", errors.New("boom"), "boom"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Contains(t, userError(tt.err).Error(), tt.want)
		})
	}
	assert.NoError(t, userError(nil))
}

func TestParseLine(t *testing.T) {
	desc, qty, cost, err := parseLine("Cable: cat6, 3m:12:2.5")
	require.NoError(t, err)
	assert.Equal(t, "Cable: cat6, 3m", desc)
	assert.True(t, qty.Equal(decimal.NewFromInt(12)))
	assert.True(t, cost.Equal(decimal.RequireFromString("2.5")))

	_, _, _, err = parseLine("just a description")
	assert.Error(t, err)
	_, _, _, err = parseLine("Thing:x:1")
	assert.Error(t, err)
}

func TestMoney(t *testing.T) {
	assert.Equal(t, "1,234,567.89", money(decimal.RequireFromString("1234567.885")))
	assert.Equal(t, "-0.50", money(decimal.RequireFromString("-0.5")))
	assert.Equal(t, "0.00", money(decimal.Zero))
	assert.Equal(t, "-12,000.00", money(decimal.NewFromInt(-12000)))
}

func TestPromptConfirmer(t *testing.T) {
	var out bytes.Buffer
	c := newPromptConfirmer(strings.NewReader("yes\nno\n"), &out)
	ctx := context.Background()

	ok, err := c.Confirm(ctx, "First?")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = c.Confirm(ctx, "Second?")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = c.Confirm(ctx, "At end of input?")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Contains(t, out.String(), "Second? [y/N]: ")

	cancelled, cancel := context.WithTimeout(ctx, time.Nanosecond)
	defer cancel()
	<-cancelled.Done()
	_, err = c.Confirm(cancelled, "Late?")
	assert.Error(t, err)
}
