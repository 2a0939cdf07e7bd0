package exporter

import (
	"bytes"
	"encoding/csv"
	"strconv"
	"time"

	"github.com/pkg/errors"

	"github.com/permitleads/leadstack/internal/models"
	"github.com/permitleads/leadstack/internal/utils"
)

// digestColumns defines the column order of every rendered digest. Kept
// stable so clients can feed the files into their own tooling.
var digestColumns = []string{
	"permit_number",
	"city",
	"permit_type",
	"work_class",
	"valuation",
	"square_footage",
	"applied_date",
	"issued_date",
	"zip_code",
	"council_district",
	"contractor_name",
	"contractor_company",
	"contractor_phone",
	"description",
}

// RenderCSV renders the permits of one class run into a CSV digest body.
// Permits render in the order given, which is ingestion order.
func RenderCSV(permits []*models.Permit) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write(digestColumns); err != nil {
		return nil, errors.Wrap(err, "failed to write digest header")
	}

	for _, permit := range permits {
		if err := writer.Write(permitRow(permit)); err != nil {
			return nil, errors.Wrapf(err, "failed to write digest row for permit %s", permit.ID)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, errors.Wrap(err, "failed to flush digest")
	}

	return buf.Bytes(), nil
}

func permitRow(p *models.Permit) []string {
	return []string{
		p.PermitNumber,
		p.City,
		p.PermitType,
		p.WorkClass,
		strconv.FormatFloat(p.Valuation, 'f', 2, 64),
		strconv.Itoa(p.SquareFootage),
		formatDate(p.AppliedDate),
		formatDate(p.IssuedDate),
		p.ZipCode,
		p.CouncilDistrict,
		p.ContractorName,
		p.ContractorCompany,
		p.ContractorPhone,
		p.Description,
	}
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(utils.DateLayout)
}
