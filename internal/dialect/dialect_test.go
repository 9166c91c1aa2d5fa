package dialect

import (
	"errors"
	"testing"

	"dolphinscheduler-tools/internal/domain"
)

func TestNew(t *testing.T) {
	// サポートするのはmysqlとpostgresqlのみ（大文字小文字は区別しない）
	for _, dbType := range []string{"mysql", "postgresql", "MySQL", "POSTGRESQL"} {
		if _, err := New(dbType); err != nil {
			t.Errorf("New(%q) failed: %v", dbType, err)
		}
	}

	for _, dbType := range []string{"", "oracle", "sqlserver", "h2"} {
		if _, err := New(dbType); !errors.Is(err, domain.ErrUnsupportedDatabaseType) {
			t.Errorf("New(%q): expected ErrUnsupportedDatabaseType, got %v", dbType, err)
		}
	}
}

func TestDialect_InitScriptPath(t *testing.T) {
	cases := map[string]string{
		"mysql":      "sql/dolphinscheduler_mysql.sql",
		"postgresql": "sql/dolphinscheduler_postgresql.sql",
	}

	for dbType, want := range cases {
		d, err := New(dbType)
		if err != nil {
			t.Fatalf("New(%q) failed: %v", dbType, err)
		}
		if got := d.InitScriptPath(); got != want {
			t.Errorf("InitScriptPath(%s): expected %s, got %s", dbType, want, got)
		}
	}
}

func TestDialect_UpgradeScriptPaths(t *testing.T) {
	d, err := New("mysql")
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	if got, want := d.UpgradeDDLPath("1.3.0_schema"), "sql/upgrade/1.3.0_schema/mysql/dolphinscheduler_ddl.sql"; got != want {
		t.Errorf("UpgradeDDLPath: expected %s, got %s", want, got)
	}
	if got, want := d.UpgradeDMLPath("1.3.0_schema"), "sql/upgrade/1.3.0_schema/mysql/dolphinscheduler_dml.sql"; got != want {
		t.Errorf("UpgradeDMLPath: expected %s, got %s", want, got)
	}

	// ダイアレクト名は小文字でパスに埋め込まれる
	p, err := New("POSTGRESQL")
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if got, want := p.UpgradeDDLPath("2.0.6"), "sql/upgrade/2.0.6/postgresql/dolphinscheduler_ddl.sql"; got != want {
		t.Errorf("UpgradeDDLPath: expected %s, got %s", want, got)
	}
}
