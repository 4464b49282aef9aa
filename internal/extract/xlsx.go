package extract

import (
	"context"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/maxzrff/KnowledgeMCP/internal/domain"
)

// XLSXExtractor flattens every sheet's rows into tab-separated lines
// via xuri/excelize/v2.
type XLSXExtractor struct{}

func NewXLSXExtractor() *XLSXExtractor { return &XLSXExtractor{} }

func (e *XLSXExtractor) Process(ctx context.Context, path string, opts Options) (Result, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return Result{}, fmt.Errorf("opening xlsx: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	var sb strings.Builder
	rowCount := 0
	for _, sheet := range sheets {
		rows, err := f.GetRows(sheet)
		if err != nil {
			continue
		}
		sb.WriteString(sheet)
		sb.WriteString("\n")
		for _, row := range rows {
			sb.WriteString(strings.Join(row, "\t"))
			sb.WriteString("\n")
			rowCount++
		}
	}

	return Result{
		Text:   sb.String(),
		Method: domain.MethodTextExtraction,
		Metadata: domain.Metadata{
			"sheet_count": len(sheets),
			"row_count":   rowCount,
		},
	}, nil
}
