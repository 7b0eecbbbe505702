package reports

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/jung-kurt/gofpdf"

	"leavehub/internal/domain/balance"
	"leavehub/internal/domain/catalog"
	"leavehub/internal/domain/roles"
)

// Service renders the admin balance report. Gating rides on the roles
// service: listing users already requires the admin role.
type Service struct {
	catalog  *catalog.Service
	balances *balance.Service
	roles    *roles.Service
}

func NewService(catalogSvc *catalog.Service, balances *balance.Service, rolesSvc *roles.Service) *Service {
	return &Service{catalog: catalogSvc, balances: balances, roles: rolesSvc}
}

// BalanceReportPDF writes a per-user balance breakdown for the year.
func (s *Service) BalanceReportPDF(ctx context.Context, callerID string, year int, w io.Writer) error {
	users, err := s.roles.ListUsers(ctx, callerID)
	if err != nil {
		return err
	}
	types, err := s.catalog.List(ctx)
	if err != nil {
		return err
	}

	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(40, 10, fmt.Sprintf("Leave Balance Report %d", year))
	pdf.Ln(8)
	pdf.SetFont("Helvetica", "", 9)
	pdf.Cell(0, 6, "Generated "+time.Now().UTC().Format("2006-01-02 15:04 UTC"))
	pdf.Ln(10)

	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(70, 8, "User", "1", 0, "L", false, 0, "")
	pdf.CellFormat(55, 8, "Leave Type", "1", 0, "L", false, 0, "")
	pdf.CellFormat(30, 8, "Allocated", "1", 0, "R", false, 0, "")
	pdf.CellFormat(30, 8, "Used", "1", 0, "R", false, 0, "")
	pdf.CellFormat(30, 8, "Available", "1", 1, "R", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)

	for _, user := range users {
		for _, t := range types {
			b, err := s.balances.Get(ctx, user.UserID, t.ID, year, "")
			if err != nil {
				return err
			}
			available := fmt.Sprintf("%g", b.Available)
			allocated := fmt.Sprintf("%g", b.Allocated)
			if t.Unlimited() {
				available = balance.UnlimitedLabel
				allocated = balance.UnlimitedLabel
			}
			pdf.CellFormat(70, 7, user.Email, "1", 0, "L", false, 0, "")
			pdf.CellFormat(55, 7, t.Label, "1", 0, "L", false, 0, "")
			pdf.CellFormat(30, 7, allocated, "1", 0, "R", false, 0, "")
			pdf.CellFormat(30, 7, fmt.Sprintf("%g", b.Used), "1", 0, "R", false, 0, "")
			pdf.CellFormat(30, 7, available, "1", 1, "R", false, 0, "")
		}
	}

	return pdf.Output(w)
}
