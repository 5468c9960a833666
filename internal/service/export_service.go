package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"lms-core/internal/model"
	"lms-core/internal/repository"
)

// ── 导出模块业务错误 ──

var (
	ErrExportGenerateFail = errors.New("生成 Excel 文件失败")
)

// ExportService 导出业务接口
//
// 设计说明：
//   - 导出班级成绩册为 Excel (.xlsx)
//   - 以 bytes.Buffer 返回，由 Handler 层设置 HTTP 响应头后写入 Response
//   - 列：学号 | 各作业得分（按类别分组） | 总评百分比 | 字母成绩
type ExportService interface {
	// ExportGradebook 导出班级成绩册
	ExportGradebook(ctx context.Context, classID string) (*bytes.Buffer, string, error)
}

type exportService struct {
	repo   *repository.Repository
	grade  GradeService
	logger *zap.Logger
}

// NewExportService 创建 ExportService 实例
func NewExportService(repo *repository.Repository, grade GradeService, logger *zap.Logger) ExportService {
	return &exportService{repo: repo, grade: grade, logger: logger}
}

// ═══════════════════════════════════════════════════════════
// ExportGradebook 导出班级成绩册
// ═══════════════════════════════════════════════════════════
//
// 字母成绩取 Enrollment 中已落库的值，百分比为导出时实时计算
// 返回值：buf（Excel 内容）, filename（建议文件名）, error

func (s *exportService) ExportGradebook(ctx context.Context, classID string) (*bytes.Buffer, string, error) {
	// 1. 班级
	class, err := s.repo.ClassOffering.GetByID(ctx, classID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", ErrClassNotFound
		}
		s.logger.Error("查询开课班级失败", zap.String("class_id", classID), zap.Error(err))
		return nil, "", storeError(err)
	}

	// 2. 类别与作业
	categories, err := s.repo.Category.ListWithAssignments(ctx, classID)
	if err != nil {
		s.logger.Error("查询作业类别失败", zap.Error(err))
		return nil, "", storeError(err)
	}

	type column struct {
		assignment *model.Assignment
		header     string
	}
	var columns []column
	for ci := range categories {
		cat := &categories[ci]
		for ai := range cat.Assignments {
			a := &cat.Assignments[ai]
			columns = append(columns, column{
				assignment: a,
				header:     fmt.Sprintf("%s / %s (%d)", cat.Name, a.Name, a.Points()),
			})
		}
	}

	// 3. 选课学生
	enrollments, err := s.repo.Enrollment.ListByClass(ctx, classID)
	if err != nil {
		s.logger.Error("查询选课记录失败", zap.Error(err))
		return nil, "", storeError(err)
	}

	title := classTitle(class)

	// 4. 生成 Excel
	f := excelize.NewFile()
	defer f.Close()

	sheetName := "成绩册"
	idx, _ := f.NewSheet(sheetName)
	f.SetActiveSheet(idx)
	f.DeleteSheet("Sheet1")

	lastCol := colName(len(columns) + 2)
	f.SetColWidth(sheetName, "A", "A", 12)
	if len(columns) > 0 {
		f.SetColWidth(sheetName, colName(1), colName(len(columns)), 20)
	}
	f.SetColWidth(sheetName, colName(len(columns)+1), lastCol, 12)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})

	// 标题行
	f.SetCellValue(sheetName, "A1", fmt.Sprintf("%s 成绩册", title))
	f.MergeCell(sheetName, "A1", cell(lastCol, 1))
	f.SetCellStyle(sheetName, "A1", "A1", headerStyle)

	// 表头
	row := 2
	f.SetCellValue(sheetName, cell("A", row), "学号")
	for i, c := range columns {
		f.SetCellValue(sheetName, cell(colName(1+i), row), c.header)
	}
	f.SetCellValue(sheetName, cell(colName(len(columns)+1), row), "总评百分比")
	f.SetCellValue(sheetName, cell(lastCol, row), "字母成绩")
	f.SetCellStyle(sheetName, cell("A", row), cell(lastCol, row), headerStyle)

	// 数据行
	row = 3
	for _, e := range enrollments {
		f.SetCellValue(sheetName, cell("A", row), e.StudentUID)

		for i, c := range columns {
			score, err := s.repo.Submission.GetScore(ctx, c.assignment.AssignmentID, e.StudentUID)
			if err != nil {
				s.logger.Error("查询作业得分失败", zap.Error(err))
				return nil, "", storeError(err)
			}
			if score != nil {
				f.SetCellValue(sheetName, cell(colName(1+i), row), *score)
			} else {
				f.SetCellValue(sheetName, cell(colName(1+i), row), "-")
			}
		}

		breakdown, err := s.grade.ComputeBreakdown(ctx, classID, e.StudentUID)
		if err != nil {
			return nil, "", err
		}
		if breakdown.Grade == model.UngradedGrade {
			f.SetCellValue(sheetName, cell(colName(len(columns)+1), row), "-")
		} else {
			f.SetCellValue(sheetName, cell(colName(len(columns)+1), row), fmt.Sprintf("%.2f", breakdown.FinalPercent))
		}
		f.SetCellValue(sheetName, cell(lastCol, row), e.Grade)
		row++
	}

	// 写入 buffer
	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("写入 Excel 失败", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}

	filename := fmt.Sprintf("成绩册_%s.xlsx", title)
	return buf, filename, nil
}

// ── 辅助函数 ──

// classTitle 形如 "CS 3500 Fall 2024"，未预加载课程时退回班级 ID
func classTitle(class *model.ClassOffering) string {
	if class.Course == nil {
		return class.ClassID
	}
	return fmt.Sprintf("%s %d %s", class.Course.Subject, class.Course.Number, class.Semester().String())
}

// colName 0 起的列序号 → Excel 列名
func colName(idx int) string {
	name, _ := excelize.ColumnNumberToName(idx + 1)
	return name
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}
