// Package governance serves the offline OpenGov dataset: two CSV exports,
// one of voters and one of referenda, loaded wholesale at startup. The data
// is a periodic snapshot, not a live feed, so there is no refresh path.
package governance

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"

	"go.uber.org/zap"

	clierr "github.com/polkaguardian/guardian-cli/internal/errors"
	"github.com/polkaguardian/guardian-cli/internal/model"
)

type Store struct {
	voters    []model.VoterProfile
	proposals []model.Proposal
	logger    *zap.Logger
}

// Load reads the voter and proposal CSVs. An empty path skips that dataset;
// lookups against it then report not-found rather than failing the process.
func Load(votersPath, proposalsPath string, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Store{logger: logger}

	if votersPath != "" {
		rows, err := readCSV(votersPath)
		if err != nil {
			return nil, clierr.Wrap(clierr.CodeUsage, fmt.Sprintf("load voters dataset %s", votersPath), err)
		}
		s.voters = parseVoters(rows)
		logger.Debug("voters dataset loaded", zap.String("path", votersPath), zap.Int("rows", len(s.voters)))
	}
	if proposalsPath != "" {
		rows, err := readCSV(proposalsPath)
		if err != nil {
			return nil, clierr.Wrap(clierr.CodeUsage, fmt.Sprintf("load proposals dataset %s", proposalsPath), err)
		}
		s.proposals = parseProposals(rows)
		logger.Debug("proposals dataset loaded", zap.String("path", proposalsPath), zap.Int("rows", len(s.proposals)))
	}
	return s, nil
}

// record is one CSV row keyed by lowercased header name.
type record map[string]string

func readCSV(path string) ([]record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	rows, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}

	header := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		header[i] = strings.ToLower(strings.TrimSpace(h))
	}

	out := make([]record, 0, len(rows)-1)
	for _, row := range rows[1:] {
		rec := make(record, len(header))
		for i, field := range row {
			if i >= len(header) {
				break
			}
			rec[header[i]] = strings.TrimSpace(field)
		}
		out = append(out, rec)
	}
	return out, nil
}

func parseVoters(rows []record) []model.VoterProfile {
	out := make([]model.VoterProfile, 0, len(rows))
	for _, rec := range rows {
		// Older exports use "address", current ones "voter".
		address := rec.first("voter", "address")
		if address == "" {
			continue
		}
		p := model.VoterProfile{
			Address:         address,
			Name:            rec.first("voter_name", "name"),
			Type:            rec.first("voter_type", "type"),
			Active:          parseBool(rec["is_active"]),
			LastVoteTime:    rec["last_vote_time"],
			TotalVotes:      parseInt(rec["total_votes"]),
			TotalTokensCast: parseFloat(rec["total_tokens_cast"]),
			AyeTokens:       parseFloat(rec["aye_tokens"]),
			NayTokens:       parseFloat(rec["nay_tokens"]),
			AbstainTokens:   parseFloat(rec["abstain_tokens"]),
			SupportRatioPct: parseFloat(rec["support_ratio_pct"]),
			Delegates:       rec["delegates"],
		}
		total := p.AyeTokens + p.NayTokens + p.AbstainTokens
		if total > 0 {
			p.AyePct = p.AyeTokens / total * 100
			p.NayPct = p.NayTokens / total * 100
			p.AbstainPct = p.AbstainTokens / total * 100
		}
		out = append(out, p)
	}
	return out
}

func parseProposals(rows []record) []model.Proposal {
	out := make([]model.Proposal, 0, len(rows))
	for _, rec := range rows {
		out = append(out, model.Proposal{
			Chain:          rec["chain"],
			Origin:         rec["origin"],
			ReferendaID:    rec["referenda_id"],
			Status:         rec["status"],
			Title:          rec["title"],
			ProposedByName: rec["proposed_by_name"],
			ProposedBy:     rec["proposed_by"],
			StartTime:      rec["start_time"],
			EndTime:        rec["end_time"],
			ReferendaURL:   rec["referenda_url"],
		})
	}
	return out
}

func (r record) first(keys ...string) string {
	for _, k := range keys {
		if v := r[k]; v != "" {
			return v
		}
	}
	return ""
}

func parseBool(s string) bool {
	switch strings.ToLower(s) {
	case "true", "1", "yes", "y":
		return true
	}
	return false
}

func parseInt(s string) int64 {
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		// Some exports write counts as floats ("42.0").
		if f, ferr := strconv.ParseFloat(s, 64); ferr == nil {
			return int64(f)
		}
		return 0
	}
	return v
}

func parseFloat(s string) float64 {
	v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
	if err != nil {
		return 0
	}
	return v
}

// LookupVoter finds a voter by address, case-insensitive.
func (s *Store) LookupVoter(address string) (model.VoterProfile, bool) {
	needle := strings.ToLower(strings.TrimSpace(address))
	if needle == "" {
		return model.VoterProfile{}, false
	}
	for _, v := range s.voters {
		if strings.ToLower(v.Address) == needle {
			return v, true
		}
	}
	return model.VoterProfile{}, false
}

// Proposals returns the newest referenda, bounded by limit (<=0 means all).
func (s *Store) Proposals(limit int) []model.Proposal {
	if limit <= 0 || limit > len(s.proposals) {
		limit = len(s.proposals)
	}
	out := make([]model.Proposal, limit)
	copy(out, s.proposals[:limit])
	return out
}

// ProposalByID finds a referendum by its id, optionally qualified by chain.
func (s *Store) ProposalByID(id, chain string) (model.Proposal, bool) {
	id = strings.TrimSpace(id)
	for _, p := range s.proposals {
		if p.ReferendaID != id {
			continue
		}
		if chain != "" && !strings.EqualFold(p.Chain, chain) {
			continue
		}
		return p, true
	}
	return model.Proposal{}, false
}

// ContextRecords returns the proposal rows used to ground assistant prompts.
func (s *Store) ContextRecords(limit int) []model.Proposal {
	return s.Proposals(limit)
}

func (s *Store) VoterCount() int    { return len(s.voters) }
func (s *Store) ProposalCount() int { return len(s.proposals) }
