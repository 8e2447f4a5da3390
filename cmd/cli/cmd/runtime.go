package cmd

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"rentaiagent/adapters/backend"
	"rentaiagent/adapters/mailer"
	"rentaiagent/adapters/storage"
	"rentaiagent/core/catalog"
	"rentaiagent/core/currency"
	"rentaiagent/core/submission"
	"rentaiagent/core/wizard"
	"rentaiagent/internal/config"
	"rentaiagent/internal/logging"
)

// Override files looked up in the storage home
const (
	catalogFile    = "catalog.hcl"
	currenciesFile = "currencies.hcl"
)

// runtime wires the client components from a configuration
type runtime struct {
	cfg        *config.Config
	client     *backend.Client
	store      *storage.FileStore
	session    *storage.Session
	outbox     *storage.Outbox
	mailer     *mailer.Mailer
	currencies *currency.Table
	wizard     *wizard.Wizard
	submitter  *submission.Submitter
}

func newRuntime(cfg *config.Config, logger *zap.Logger) (*runtime, error) {
	logger = logging.Named(logger, "cli")

	store, err := storage.NewFileStore(cfg.Storage.Home, cfg.Storage.Passphrase, logger)
	if err != nil {
		return nil, err
	}
	cat, err := loadCatalog(cfg.Storage.Home)
	if err != nil {
		return nil, err
	}
	currencies, err := loadCurrencies(cfg.Storage.Home, logger)
	if err != nil {
		return nil, err
	}

	rt := &runtime{
		cfg:        cfg,
		client:     backend.NewClient(cfg, logger),
		store:      store,
		session:    storage.NewSession(store),
		outbox:     storage.NewOutbox(store, cfg.Storage.OutboxLimit),
		currencies: currencies,
		wizard:     wizard.New(cat, currencies, logger),
	}
	rt.mailer = mailer.New(rt.client, rt.outbox, cfg.Notifications, logger)
	rt.submitter = submission.New(rt.client, rt.mailer, cfg.Submission.DegradeOnBackendFailure, logger)
	return rt, nil
}

func loadCatalog(home string) (*catalog.Catalog, error) {
	path := filepath.Join(home, catalogFile)
	present, err := overridePresent(path)
	if err != nil {
		return nil, err
	}
	if !present {
		return catalog.Default(), nil
	}
	return catalog.LoadHCL(path)
}

func loadCurrencies(home string, logger *zap.Logger) (*currency.Table, error) {
	path := filepath.Join(home, currenciesFile)
	present, err := overridePresent(path)
	if err != nil {
		return nil, err
	}
	if !present {
		return currency.NewTable(currency.DefaultEntries(), logger), nil
	}
	return currency.LoadHCL(path, logger)
}

// overridePresent reports whether an override file exists. Errors other
// than absence are returned.
func overridePresent(path string) (bool, error) {
	if _, err := os.Stat(path); err != nil {
		if stderrors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("failed to read override %s: %w", path, err)
	}
	return true, nil
}

func printJSON(w io.Writer, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
