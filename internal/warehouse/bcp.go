package warehouse

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Config describes how to reach the warehouse's bulk-copy tooling.
type Config struct {
	Container string // docker container running the warehouse
	BCPPath   string // path of the bcp binary inside the container
	Server    string
	User      string
	Password  string
	Database  string
	TempDir   string // host directory for exported result files
}

// BCPSource implements RuleSource by exporting query results to a JSON file
// with the warehouse's bcp utility. bcp is used instead of the interactive
// query client because the latter truncates long statements.
type BCPSource struct {
	cfg    Config
	logger *zap.Logger
}

// NewBCPSource creates a BCPSource.
func NewBCPSource(cfg Config, logger *zap.Logger) *BCPSource {
	if cfg.TempDir == "" {
		cfg.TempDir = os.TempDir()
	}
	return &BCPSource{cfg: cfg, logger: logger}
}

// RulesForProduct returns the top rules whose antecedent contains productID,
// ordered by lift.
func (s *BCPSource) RulesForProduct(ctx context.Context, productID int64, topN int) ([]AssociationRule, error) {
	query := fmt.Sprintf(`
		SELECT TOP (%d)
			r.RuleID,
			r.ConsequentProductIds,
			r.ConsequentNames,
			r.Support,
			r.Confidence,
			r.Lift,
			CONVERT(varchar(33), r.FechaCalculo, 126) AS ComputedAt
		FROM dwh.ProductAssociationRules r
		WHERE %s
		AND r.Activo = 1
		ORDER BY r.Lift DESC`, topN, antecedentMatch(productID))

	raw, err := s.export(ctx, query)
	if err != nil {
		return nil, err
	}
	return parseRules(raw)
}

// RulesForCart returns the top rules whose antecedent contains any of the
// cart's products.
func (s *BCPSource) RulesForCart(ctx context.Context, productIDs []int64, topN int) ([]AssociationRule, error) {
	if len(productIDs) == 0 {
		return []AssociationRule{}, nil
	}

	conds := make([]string, 0, len(productIDs))
	for _, id := range productIDs {
		conds = append(conds, antecedentMatch(id))
	}
	query := fmt.Sprintf(`
		SELECT TOP (%d)
			r.RuleID,
			r.ConsequentProductIds,
			r.ConsequentNames,
			r.Support,
			r.Confidence,
			r.Lift,
			CONVERT(varchar(33), r.FechaCalculo, 126) AS ComputedAt
		FROM dwh.ProductAssociationRules r
		WHERE (%s)
		AND r.Activo = 1
		ORDER BY r.Lift DESC`, topN, strings.Join(conds, " OR "))

	raw, err := s.export(ctx, query)
	if err != nil {
		return nil, err
	}
	return parseRules(raw)
}

// Stats summarises the active rule set.
func (s *BCPSource) Stats(ctx context.Context) (*Stats, error) {
	query := `
		SELECT
			COUNT_BIG(*) AS TotalRules,
			AVG(r.Confidence) AS AvgConfidence,
			AVG(r.Lift) AS AvgLift,
			CONVERT(varchar(33), MAX(r.FechaCalculo), 126) AS LastComputedAt
		FROM dwh.ProductAssociationRules r
		WHERE r.Activo = 1`

	raw, err := s.export(ctx, query)
	if err != nil {
		return nil, err
	}
	return parseStats(raw)
}

// antecedentMatch builds the LIKE disjunction matching a product id inside
// the warehouse's comma-separated antecedent column.
func antecedentMatch(productID int64) string {
	return fmt.Sprintf(`(
		r.AntecedentProductIds = '%[1]d'
		OR r.AntecedentProductIds LIKE '%[1]d,%%'
		OR r.AntecedentProductIds LIKE '%%,%[1]d,%%'
		OR r.AntecedentProductIds LIKE '%%,%[1]d')`, productID)
}

// export runs a query through bcp inside the warehouse container, copies the
// exported JSON file to the host, reads it and cleans both copies up.
func (s *BCPSource) export(ctx context.Context, query string) ([]byte, error) {
	stamp := time.Now().UnixNano()
	containerFile := path.Join("/tmp", fmt.Sprintf("bcp_output_%d.json", stamp))
	hostFile := filepath.Join(s.cfg.TempDir, fmt.Sprintf("dwh_export_%d.json", stamp))

	jsonQuery := strings.Join(strings.Fields(query), " ") + " FOR JSON PATH"

	start := time.Now()
	bcpArgs := []string{
		"exec", s.cfg.Container, s.cfg.BCPPath,
		jsonQuery, "queryout", containerFile,
		"-c",
		"-S", s.cfg.Server,
		"-U", s.cfg.User,
		"-P", s.cfg.Password,
		"-d", s.cfg.Database,
	}
	if out, err := exec.CommandContext(ctx, "docker", bcpArgs...).CombinedOutput(); err != nil {
		return nil, fmt.Errorf("warehouse bcp export failed: %w: %s", err, bytes.TrimSpace(out))
	}

	defer func() {
		// Best-effort cleanup inside the container.
		_ = exec.Command("docker", "exec", s.cfg.Container, "rm", "-f", containerFile).Run()
	}()

	if out, err := exec.CommandContext(ctx, "docker", "cp",
		s.cfg.Container+":"+containerFile, hostFile).CombinedOutput(); err != nil {
		return nil, fmt.Errorf("failed to copy warehouse export: %w: %s", err, bytes.TrimSpace(out))
	}
	defer os.Remove(hostFile)

	data, err := os.ReadFile(hostFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read warehouse export: %w", err)
	}

	s.logger.Debug("warehouse export finished",
		zap.Duration("elapsed", time.Since(start)),
		zap.Int("bytes", len(data)))
	return data, nil
}

// dwhRule mirrors the warehouse's column names in the exported JSON.
type dwhRule struct {
	RuleID          int64   `json:"RuleID"`
	ConsequentIDs   string  `json:"ConsequentProductIds"`
	ConsequentNames string  `json:"ConsequentNames"`
	Support         float64 `json:"Support"`
	Confidence      float64 `json:"Confidence"`
	Lift            float64 `json:"Lift"`
	ComputedAt      string  `json:"ComputedAt"`
}

type dwhStats struct {
	TotalRules     int64   `json:"TotalRules"`
	AvgConfidence  float64 `json:"AvgConfidence"`
	AvgLift        float64 `json:"AvgLift"`
	LastComputedAt string  `json:"LastComputedAt"`
}

// parseRules decodes a bcp JSON export. bcp wraps long rows across lines, so
// newlines are stripped before decoding. An empty export means no rules.
func parseRules(raw []byte) ([]AssociationRule, error) {
	cleaned := normalizeExport(raw)
	if len(cleaned) == 0 {
		return []AssociationRule{}, nil
	}

	var rows []dwhRule
	if err := json.Unmarshal(cleaned, &rows); err != nil {
		// A single-row export may arrive as a bare object.
		var row dwhRule
		if objErr := json.Unmarshal(cleaned, &row); objErr != nil {
			return nil, fmt.Errorf("failed to parse warehouse export: %w", err)
		}
		rows = []dwhRule{row}
	}

	rules := make([]AssociationRule, 0, len(rows))
	for _, r := range rows {
		rules = append(rules, AssociationRule(r))
	}
	return rules, nil
}

func parseStats(raw []byte) (*Stats, error) {
	cleaned := normalizeExport(raw)
	if len(cleaned) == 0 {
		return &Stats{}, nil
	}

	var rows []dwhStats
	if err := json.Unmarshal(cleaned, &rows); err != nil {
		var row dwhStats
		if objErr := json.Unmarshal(cleaned, &row); objErr != nil {
			return nil, fmt.Errorf("failed to parse warehouse stats export: %w", err)
		}
		rows = []dwhStats{row}
	}
	if len(rows) == 0 {
		return &Stats{}, nil
	}
	return &Stats{
		TotalRules:     rows[0].TotalRules,
		AvgConfidence:  rows[0].AvgConfidence,
		AvgLift:        rows[0].AvgLift,
		LastComputedAt: rows[0].LastComputedAt,
	}, nil
}

func normalizeExport(raw []byte) []byte {
	cleaned := bytes.TrimSpace(raw)
	cleaned = bytes.ReplaceAll(cleaned, []byte("\r"), nil)
	cleaned = bytes.ReplaceAll(cleaned, []byte("\n"), nil)
	if len(cleaned) == 0 || bytes.Equal(cleaned, []byte("null")) || bytes.Equal(cleaned, []byte("[]")) {
		return nil
	}
	return cleaned
}
