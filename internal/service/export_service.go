package service

import (
	"bytes"
	"context"
	"fmt"

	"debtflow/internal/model"
	"debtflow/internal/repository"

	"github.com/xuri/excelize/v2"
)

const exportSheet = "Debt Requests"

var exportHeaders = []string{
	"Request No", "Brand", "Branch", "SVR", "Amount", "Currency",
	"Status", "Current Approver", "Requires Supervisor", "Submitted By", "Created At",
}

// ExportService renders request listings as xlsx workbooks for the finance
// back office.
type ExportService interface {
	ExportRequests(ctx context.Context, filter repository.RequestFilter) ([]byte, string, error)
}

type exportService struct {
	requests repository.RequestRepository
}

func NewExportService(requests repository.RequestRepository) ExportService {
	return &exportService{requests: requests}
}

// ExportRequests writes every request matching the filter into a single
// sheet. Pagination is bypassed: an export is the full filtered set.
func (s *exportService) ExportRequests(ctx context.Context, filter repository.RequestFilter) ([]byte, string, error) {
	filter.Page = 1
	filter.Limit = 10000

	requests, _, err := s.requests.List(ctx, filter)
	if err != nil {
		return nil, "", fmt.Errorf("failed to list requests for export: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(exportSheet)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, "", fmt.Errorf("failed to drop default sheet: %w", err)
	}

	for col, header := range exportHeaders {
		cell, cellErr := excelize.CoordinatesToCellName(col+1, 1)
		if cellErr != nil {
			return nil, "", cellErr
		}
		if setErr := f.SetCellValue(exportSheet, cell, header); setErr != nil {
			return nil, "", setErr
		}
	}

	for row, req := range requests {
		values := exportRow(req)
		for col, value := range values {
			cell, cellErr := excelize.CoordinatesToCellName(col+1, row+2)
			if cellErr != nil {
				return nil, "", cellErr
			}
			if setErr := f.SetCellValue(exportSheet, cell, value); setErr != nil {
				return nil, "", setErr
			}
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, "", fmt.Errorf("failed to render workbook: %w", err)
	}

	filename := fmt.Sprintf("debt_requests_%s.xlsx", s.suffix(filter))
	return buf.Bytes(), filename, nil
}

func (s *exportService) suffix(filter repository.RequestFilter) string {
	if filter.Status != "" {
		return filter.Status
	}
	return "all"
}

func exportRow(req model.DebtRequest) []interface{} {
	brand := req.BrandID.String()
	if req.Brand != nil {
		brand = req.Brand.Name
	}
	branch := req.BranchID.String()
	if req.Branch != nil {
		branch = req.Branch.Name
	}
	svr := req.SVRID.String()
	if req.SVR != nil {
		svr = req.SVR.Name
	}
	submitter := req.SubmittedBy.String()
	if req.Submitter != nil {
		submitter = req.Submitter.Username
	}

	amount, _ := req.Amount.Float64()

	return []interface{}{
		req.RequestNo,
		brand,
		branch,
		svr,
		amount,
		req.Currency,
		req.Status,
		req.CurrentApproverType,
		req.RequiresSupervisor,
		submitter,
		req.CreatedAt.Format("2006-01-02 15:04:05"),
	}
}
