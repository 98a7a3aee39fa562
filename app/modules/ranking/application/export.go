package rankingservice

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	rankingdb "github.com/moto-league/ranking-engine/app/modules/ranking/infrastructure/repositories"
)

var exportHeaders = []string{"Rank", "Member ID", "Total Points", "Total Miles", "Events", "Visitor Class", "Last Calculated"}

// ExportRankingXLSX renders a standings page as an XLSX workbook with a header
// row and one row per member, in the order the rows were given.
func (s *RankingService) ExportRankingXLSX(rows []rankingdb.RankingSnapshot, sheetName string) ([]byte, error) {
	if sheetName == "" {
		sheetName = "Standings"
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), sheetName); err != nil {
		return nil, fmt.Errorf("failed to name sheet %q: %w", sheetName, err)
	}

	for col, header := range exportHeaders {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(sheetName, cell, header); err != nil {
			return nil, fmt.Errorf("failed to write header %q: %w", header, err)
		}
	}

	for i, row := range rows {
		rank := any("")
		if row.Rank != nil {
			rank = *row.Rank
		}
		values := []any{
			rank,
			row.MemberID,
			row.TotalPoints,
			row.TotalMiles,
			row.EventsCount,
			row.VisitorClass,
			row.LastCalculatedAt.Format("2006-01-02 15:04:05"),
		}
		for col, value := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, i+2)
			if err != nil {
				return nil, err
			}
			if err := f.SetCellValue(sheetName, cell, value); err != nil {
				return nil, fmt.Errorf("failed to write row %d: %w", i+1, err)
			}
		}
	}

	buffer, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to serialize workbook: %w", err)
	}
	return buffer.Bytes(), nil
}
