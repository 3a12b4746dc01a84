package migrate_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestGiftCardMigrationContainsConstraints(t *testing.T) {
	matches, err := filepath.Glob(filepath.Join("migrations", "*_create_gift_cards.sql"))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no gift card migration file found")
	}

	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	content := string(data)

	checks := []string{
		"CREATE TABLE IF NOT EXISTS gift_cards",
		"CHECK (current_balance >= 0)",
		"CHECK (initial_value >= 0)",
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_gift_cards_code",
		"DROP TABLE IF EXISTS gift_cards",
	}

	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestTransactionMigrationCascades(t *testing.T) {
	matches, err := filepath.Glob(filepath.Join("migrations", "*_create_gift_card_transactions.sql"))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no transaction migration file found")
	}

	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	content := string(data)

	checks := []string{
		"CREATE TABLE IF NOT EXISTS gift_card_transactions",
		"FOREIGN KEY (gift_card_id) REFERENCES gift_cards(id) ON DELETE CASCADE",
		"CHECK (balance_after >= 0)",
		"DROP TABLE IF EXISTS gift_card_transactions",
	}

	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}
