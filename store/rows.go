package store

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"
)

// Record is one security's entry in the downloaded artifact. The vendor
// serves flat JSON records: the identifier echo fields plus one top-level
// key per requested mnemonic. The mapping is fixed here instead of probed
// at runtime; a schema drift surfaces as null columns in a single,
// inspectable place.
type Record struct {
	Ticker          string `json:"ticker"`
	IdentifierType  string `json:"identifierType"`
	IdentifierValue string `json:"identifierValue"`

	TotDebtToTotAsset     *float64 `json:"TOT_DEBT_TO_TOT_ASSET"`
	CashDvdCoverage       *float64 `json:"CASH_DVD_COVERAGE"`
	TotDebtToEbitda       *float64 `json:"TOT_DEBT_TO_EBITDA"`
	CurRatio              *float64 `json:"CUR_RATIO"`
	QuickRatio            *float64 `json:"QUICK_RATIO"`
	GrossMargin           *float64 `json:"GROSS_MARGIN"`
	InterestCoverageRatio *float64 `json:"INTEREST_COVERAGE_RATIO"`
	EbitdaMargin          *float64 `json:"EBITDA_MARGIN"`
	TotLiabAndEqy         *float64 `json:"TOT_LIAB_AND_EQY"`
	NetDebtToShrhldrEqty  *float64 `json:"NET_DEBT_TO_SHRHLDR_EQTY"`
}

// Row is one table row: the identifier triple, the fixed ratio columns and
// the run timestamp.
type Row struct {
	Ticker          string `db:"ticker"`
	IdentifierType  string `db:"identifier_type"`
	IdentifierValue string `db:"identifier_value"`

	TotDebtToTotAsset     *float64 `db:"tot_debt_to_tot_asset"`
	CashDvdCoverage       *float64 `db:"cash_dvd_coverage"`
	TotDebtToEbitda       *float64 `db:"tot_debt_to_ebitda"`
	CurRatio              *float64 `db:"cur_ratio"`
	QuickRatio            *float64 `db:"quick_ratio"`
	GrossMargin           *float64 `db:"gross_margin"`
	InterestCoverageRatio *float64 `db:"interest_coverage_ratio"`
	EbitdaMargin          *float64 `db:"ebitda_margin"`
	TotLiabAndEqy         *float64 `db:"tot_liab_and_eqy"`
	NetDebtToShrhldrEqty  *float64 `db:"net_debt_to_shrhldr_eqty"`

	RecordedAt time.Time `db:"recorded_at"`
}

// ReadArtifact parses a downloaded artifact into records. A ".gz" suffix
// selects gzip decompression; the downloader stores compressed bytes
// verbatim and defers decompression to this reader.
func ReadArtifact(path string) ([]Record, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open artifact %s: %w", path, err)
	}
	defer file.Close()

	var reader io.Reader = file
	if strings.HasSuffix(path, ".gz") {
		gz, err := gzip.NewReader(file)
		if err != nil {
			return nil, fmt.Errorf("failed to open gzip artifact %s: %w", path, err)
		}
		defer gz.Close()
		reader = gz
	}

	var records []Record
	if err := json.NewDecoder(reader).Decode(&records); err != nil {
		return nil, fmt.Errorf("failed to decode artifact %s: %w", path, err)
	}

	return records, nil
}

// MapRecords converts vendor records into table rows stamped with the run
// timestamp.
func MapRecords(records []Record, recordedAt time.Time) []Row {
	rows := make([]Row, 0, len(records))
	for _, r := range records {
		rows = append(rows, Row{
			Ticker:          r.Ticker,
			IdentifierType:  r.IdentifierType,
			IdentifierValue: r.IdentifierValue,

			TotDebtToTotAsset:     r.TotDebtToTotAsset,
			CashDvdCoverage:       r.CashDvdCoverage,
			TotDebtToEbitda:       r.TotDebtToEbitda,
			CurRatio:              r.CurRatio,
			QuickRatio:            r.QuickRatio,
			GrossMargin:           r.GrossMargin,
			InterestCoverageRatio: r.InterestCoverageRatio,
			EbitdaMargin:          r.EbitdaMargin,
			TotLiabAndEqy:         r.TotLiabAndEqy,
			NetDebtToShrhldrEqty:  r.NetDebtToShrhldrEqty,

			RecordedAt: recordedAt,
		})
	}
	return rows
}
