package diff

import (
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// Generator renders a migration SQL script from a diff Result. The script
// is ordered so additive changes run before destructive ones, wrapped in a
// single transaction. In safe mode, column and table drops are emitted as
// comments for manual review.
type Generator struct {
	result   *Result
	safeMode bool
	logger   *slog.Logger

	lines []string
	step  int
}

// NewGenerator builds a migration generator. A nil logger discards log
// output.
func NewGenerator(result *Result, safeMode bool, logger *slog.Logger) *Generator {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Generator{result: result, safeMode: safeMode, logger: logger}
}

// Generate renders the full migration script. Steps, in order:
//
//  1. Create new tables
//  2. Add new columns
//  3. Modify existing columns
//  4. Add new constraints and foreign keys
//  5. Programmable objects (comments only)
//  6. Drop removed constraints and foreign keys
//  7. Drop removed columns
//  8. Drop removed tables
func (g *Generator) Generate() string {
	g.logger.Info("generating migration script", slog.Bool("safe_mode", g.safeMode))

	g.lines = g.lines[:0]
	g.step = 0

	g.emitHeader()
	g.w("BEGIN;")
	g.w("")

	g.stepCreateTables()
	g.stepAddColumns()
	g.stepModifyColumns()
	g.stepAddConstraints()
	g.stepProgrammableObjects()
	g.stepDropConstraints()
	g.stepDropColumns()
	g.stepDropTables()

	g.w("")
	g.w("COMMIT;")
	g.emitFooter()

	script := strings.Join(g.lines, "\n")
	g.logger.Info("migration script generated", slog.Int("lines", len(g.lines)))
	return script
}

func (g *Generator) emitHeader() {
	now := time.Now().UTC().Format("2006-01-02 15:04:05 UTC")
	g.w("-- ============================================================")
	g.w("-- sqlforensic migration script")
	g.w("-- Generated: " + now)
	g.w("-- Provider:  " + g.result.Provider)
	g.w(fmt.Sprintf("-- Source:    %s/%s", g.result.SourceServer, g.result.SourceDatabase))
	g.w(fmt.Sprintf("-- Target:    %s/%s", g.result.TargetServer, g.result.TargetDatabase))
	g.w("-- Safe mode: " + onOff(g.safeMode))
	g.w("-- Risk level: " + g.result.RiskLevel)
	g.w(fmt.Sprintf("-- Total changes: %d", g.result.TotalChanges()))
	g.w("-- ============================================================")
	g.w("")

	var summary []string
	for _, r := range g.result.Risks {
		if r.RiskLevel == RiskHigh || r.RiskLevel == RiskCritical {
			summary = append(summary, fmt.Sprintf("--   [%s] %s", r.RiskLevel, r.ChangeDescription))
			for _, bc := range r.BreakingChanges {
				summary = append(summary, "--          ^ "+bc)
			}
		}
	}
	if len(summary) > 0 {
		g.w("-- RISK SUMMARY:")
		for _, line := range summary {
			g.w(line)
		}
		g.w("")
	}
}

func (g *Generator) emitFooter() {
	g.w("")
	g.w("-- ============================================================")
	g.w("-- End of migration script")
	g.w("-- ============================================================")
}

func (g *Generator) stepCreateTables() {
	if len(g.result.Tables.Added) == 0 {
		return
	}
	g.nextStep("Create new tables")
	for _, table := range g.result.Tables.Added {
		g.emitRiskWarnings(table.Name, "")
		full := qualifiedName(table.Schema, table.Name)
		g.w(fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (", full))
		var defs []string
		var pkCols []string
		for _, col := range table.Columns {
			defs = append(defs, "    "+columnDefinition(col))
			if col.IsPrimaryKey {
				pkCols = append(pkCols, col.Name)
			}
		}
		if len(pkCols) > 0 {
			quoted := make([]string, len(pkCols))
			for i, c := range pkCols {
				quoted[i] = quoteIdent(c)
			}
			defs = append(defs, fmt.Sprintf("    CONSTRAINT %s PRIMARY KEY (%s)",
				quoteIdent("pk_"+table.Name), strings.Join(quoted, ", ")))
		}
		g.w(strings.Join(defs, ",\n"))
		g.w(");")
		g.w("")
	}
}

func (g *Generator) stepAddColumns() {
	mods := withAddedColumns(g.result.Tables.Modified)
	if len(mods) == 0 {
		return
	}
	g.nextStep("Add new columns")
	for _, mod := range mods {
		full := qualifiedName(mod.TableSchema, mod.TableName)
		for _, col := range mod.AddedColumns {
			g.w(fmt.Sprintf("ALTER TABLE %s ADD COLUMN IF NOT EXISTS %s %s%s%s;",
				full, quoteIdent(col.Name), typeSpec(col), nullSpec(col), defaultSpec(col)))
		}
		g.w("")
	}
}

func (g *Generator) stepModifyColumns() {
	var mods []TableModification
	for _, m := range g.result.Tables.Modified {
		if len(m.ModifiedColumns) > 0 {
			mods = append(mods, m)
		}
	}
	if len(mods) == 0 {
		return
	}
	g.nextStep("Modify existing columns")
	for _, mod := range mods {
		full := qualifiedName(mod.TableSchema, mod.TableName)
		for _, cm := range mod.ModifiedColumns {
			g.emitRiskWarnings(mod.TableName, cm.ColumnName)
			if cm.IsBreaking {
				g.w(fmt.Sprintf("-- WARNING: breaking change on %s.%s", mod.TableName, cm.ColumnName))
				g.w(fmt.Sprintf("--   %s: %s -> %s", cm.ChangeType, cm.OldValue, cm.NewValue))
			}
			colQ := quoteIdent(cm.ColumnName)
			switch cm.ChangeType {
			case ChangeDataType:
				g.w(fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s TYPE %s;", full, colQ, cm.NewValue))
			case ChangeLength:
				g.w(fmt.Sprintf("-- NOTE: adjust the type below to carry the new length %s", cm.NewValue))
				g.w(fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s TYPE (%s);", full, colQ, cm.NewValue))
			case ChangeNullability:
				if cm.NewValue == "YES" {
					g.w(fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s DROP NOT NULL;", full, colQ))
				} else {
					g.w(fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s SET NOT NULL;", full, colQ))
				}
			case ChangeDefault:
				if cm.NewValue != "" {
					g.w(fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s SET DEFAULT %s;", full, colQ, cm.NewValue))
				} else {
					g.w(fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s DROP DEFAULT;", full, colQ))
				}
			}
			g.w("")
		}
	}
}

func (g *Generator) stepAddConstraints() {
	var mods []TableModification
	for _, m := range g.result.Tables.Modified {
		if len(m.AddedConstraints) > 0 {
			mods = append(mods, m)
		}
	}
	if len(g.result.ForeignKeysAdded) == 0 && len(mods) == 0 {
		return
	}
	g.nextStep("Add new constraints and foreign keys")

	for _, mod := range mods {
		full := qualifiedName(mod.TableSchema, mod.TableName)
		for _, cons := range mod.AddedConstraints {
			quoted := make([]string, len(cons.Columns))
			for i, c := range cons.Columns {
				quoted[i] = quoteIdent(c)
			}
			g.w(fmt.Sprintf("ALTER TABLE %s ADD CONSTRAINT %s %s (%s);",
				full, quoteIdent(cons.Name), cons.ConstraintType, strings.Join(quoted, ", ")))
			g.w("")
		}
	}

	for _, fk := range g.result.ForeignKeysAdded {
		parentFull := qualifiedName(fk.ParentSchema, fk.ParentTable)
		refFull := qualifiedName(fk.ReferencedSchema, fk.ReferencedTable)
		g.w(fmt.Sprintf("ALTER TABLE %s ADD CONSTRAINT %s FOREIGN KEY (%s) REFERENCES %s (%s);",
			parentFull, quoteIdent(fkName(fk)), quoteIdent(fk.ParentColumn),
			refFull, quoteIdent(fk.ReferencedColumn)))
		g.w("")
	}
}

func (g *Generator) stepProgrammableObjects() {
	groups := []struct {
		label    string
		diff     ObjectDiff
		typeName string
	}{
		{"Stored Procedures", g.result.Procedures, "PROCEDURE"},
		{"Views", g.result.Views, "VIEW"},
		{"Functions", g.result.Functions, "FUNCTION"},
	}

	hasChanges := false
	for _, grp := range groups {
		if len(grp.diff.Added)+len(grp.diff.Removed)+len(grp.diff.Modified) > 0 {
			hasChanges = true
			break
		}
	}
	if !hasChanges {
		return
	}

	g.nextStep("Programmable objects (manual review required)")
	g.w("-- NOTE: stored procedures, views, and functions require")
	g.w("-- manual review. Their bodies are not included in this script.")
	g.w("")

	for _, grp := range groups {
		if len(grp.diff.Added) > 0 {
			g.w("-- New " + grp.label + ":")
			for _, obj := range grp.diff.Added {
				g.w(fmt.Sprintf("--   CREATE %s %s  -- add definition",
					grp.typeName, qualifiedName(obj.Schema, obj.Name)))
			}
			g.w("")
		}
		if len(grp.diff.Removed) > 0 {
			g.w("-- Removed " + grp.label + ":")
			for _, obj := range grp.diff.Removed {
				g.w(fmt.Sprintf("--   DROP %s %s  -- verify before dropping",
					grp.typeName, qualifiedName(obj.Schema, obj.Name)))
			}
			g.w("")
		}
		if len(grp.diff.Modified) > 0 {
			g.w("-- Modified " + grp.label + ":")
			for _, obj := range grp.diff.Modified {
				g.w(fmt.Sprintf("--   ALTER %s %s  -- hash changed: %s -> %s",
					grp.typeName, qualifiedName(obj.Schema, obj.Name),
					obj.SourceHash, obj.TargetHash))
			}
			g.w("")
		}
	}
}

func (g *Generator) stepDropConstraints() {
	var mods []TableModification
	for _, m := range g.result.Tables.Modified {
		if len(m.RemovedConstraints) > 0 {
			mods = append(mods, m)
		}
	}
	if len(g.result.ForeignKeysRemoved) == 0 && len(mods) == 0 {
		return
	}
	g.nextStep("Drop removed constraints and foreign keys")

	for _, mod := range mods {
		full := qualifiedName(mod.TableSchema, mod.TableName)
		for _, cons := range mod.RemovedConstraints {
			g.w(fmt.Sprintf("ALTER TABLE %s DROP CONSTRAINT IF EXISTS %s;",
				full, quoteIdent(cons.Name)))
			g.w("")
		}
	}

	for _, fk := range g.result.ForeignKeysRemoved {
		g.emitRiskWarnings(fk.ParentTable, "")
		parentFull := qualifiedName(fk.ParentSchema, fk.ParentTable)
		g.w(fmt.Sprintf("ALTER TABLE %s DROP CONSTRAINT IF EXISTS %s;",
			parentFull, quoteIdent(fkName(fk))))
		g.w("")
	}
}

func (g *Generator) stepDropColumns() {
	mods := withRemovedColumns(g.result.Tables.Modified)
	if len(mods) == 0 {
		return
	}
	g.nextStep("Drop removed columns")
	if g.safeMode {
		g.emitSafeModeBanner("DROP COLUMN", "no data loss will occur")
	}
	for _, mod := range mods {
		full := qualifiedName(mod.TableSchema, mod.TableName)
		for _, col := range mod.RemovedColumns {
			g.emitRiskWarnings(mod.TableName, col.Name)
			stmt := fmt.Sprintf("ALTER TABLE %s DROP COLUMN %s;", full, quoteIdent(col.Name))
			if g.safeMode {
				g.w("-- " + stmt)
			} else {
				g.w(stmt)
			}
			g.w("")
		}
	}
}

func (g *Generator) stepDropTables() {
	if len(g.result.Tables.Removed) == 0 {
		return
	}
	g.nextStep("Drop removed tables")
	if g.safeMode {
		g.emitSafeModeBanner("DROP TABLE", "no dependent objects exist")
	}
	for _, table := range g.result.Tables.Removed {
		g.emitRiskWarnings(table.Name, "")
		stmt := fmt.Sprintf("DROP TABLE IF EXISTS %s;", qualifiedName(table.Schema, table.Name))
		if g.safeMode {
			g.w("-- " + stmt)
		} else {
			g.w(stmt)
		}
		g.w("")
	}
}

func (g *Generator) emitSafeModeBanner(kind, condition string) {
	g.w("-- !! MANUAL REVIEW REQUIRED !!")
	g.w(fmt.Sprintf("-- The following %s statements are commented out for safety.", kind))
	g.w(fmt.Sprintf("-- Uncomment ONLY after verifying %s.", condition))
	g.w("")
}

// emitRiskWarnings writes comments for HIGH and CRITICAL assessments that
// target the table (and, when given, mention the column).
func (g *Generator) emitRiskWarnings(tableName, columnName string) {
	for _, r := range g.result.Risks {
		if r.Table != tableName {
			continue
		}
		if columnName != "" && !strings.Contains(r.ChangeDescription, columnName) {
			continue
		}
		if r.RiskLevel != RiskHigh && r.RiskLevel != RiskCritical {
			continue
		}
		g.w(fmt.Sprintf("-- RISK [%s]: %s", r.RiskLevel, r.ChangeDescription))
		for _, bc := range r.BreakingChanges {
			g.w("--   Breaking: " + bc)
		}
		for _, rec := range r.Recommendations {
			g.w("--   Recommendation: " + rec)
		}
	}
}

func (g *Generator) nextStep(title string) {
	g.step++
	g.w("-- ----------------------------------------------------------")
	g.w(fmt.Sprintf("-- Step %d: %s", g.step, title))
	g.w("-- ----------------------------------------------------------")
	g.w("")
}

func (g *Generator) w(line string) {
	g.lines = append(g.lines, line)
}

func withAddedColumns(mods []TableModification) []TableModification {
	var out []TableModification
	for _, m := range mods {
		if len(m.AddedColumns) > 0 {
			out = append(out, m)
		}
	}
	return out
}

func withRemovedColumns(mods []TableModification) []TableModification {
	var out []TableModification
	for _, m := range mods {
		if len(m.RemovedColumns) > 0 {
			out = append(out, m)
		}
	}
	return out
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func qualifiedName(schema, name string) string {
	if schema == "" {
		schema = "public"
	}
	return quoteIdent(schema) + "." + quoteIdent(name)
}

func fkName(fk ForeignKeyInfo) string {
	if fk.ConstraintName != "" {
		return fk.ConstraintName
	}
	return fmt.Sprintf("fk_%s_%s_%s_%s",
		fk.ParentTable, fk.ParentColumn, fk.ReferencedTable, fk.ReferencedColumn)
}

func columnDefinition(col ColumnInfo) string {
	parts := []string{quoteIdent(col.Name), typeSpec(col)}
	if col.Nullable {
		parts = append(parts, "NULL")
	} else {
		parts = append(parts, "NOT NULL")
	}
	if col.Default != "" {
		parts = append(parts, "DEFAULT "+col.Default)
	}
	return strings.Join(parts, " ")
}

func typeSpec(col ColumnInfo) string {
	if col.MaxLength > 0 {
		return fmt.Sprintf("%s(%d)", col.DataType, col.MaxLength)
	}
	return col.DataType
}

func nullSpec(col ColumnInfo) string {
	if col.Nullable {
		return " NULL"
	}
	return " NOT NULL"
}

func defaultSpec(col ColumnInfo) string {
	if col.Default != "" {
		return " DEFAULT " + col.Default
	}
	return ""
}

func onOff(b bool) string {
	if b {
		return "ON"
	}
	return "OFF"
}
