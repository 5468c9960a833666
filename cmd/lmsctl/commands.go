package main

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"lms-core/internal/dto"
	"lms-core/pkg/database"
)

// ── migrate ──

func newMigrateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "执行数据库迁移",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := database.RunMigrations(a.sqlDB, a.logger); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "迁移完成")
			return nil
		},
	}
}

// ── recompute ──

func newRecomputeCmd(a *app) *cobra.Command {
	var classID, studentID string

	cmd := &cobra.Command{
		Use:   "recompute",
		Short: "重算班级（或单个学生）的字母成绩并落库",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if _, err := uuid.Parse(classID); err != nil {
				return fmt.Errorf("--class 不是合法的班级ID: %w", err)
			}

			if studentID != "" {
				grade, err := a.svc.Propagation.PropagateOne(ctx, classID, studentID)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), dto.GradeResponse{
					ClassID:   classID,
					StudentID: studentID,
					Grade:     grade,
				})
			}

			report, err := a.svc.Propagation.PropagateAll(ctx, classID)
			if err != nil {
				return err
			}
			if err := printJSON(cmd.OutOrStdout(), report); err != nil {
				return err
			}
			if len(report.Failures) > 0 {
				return fmt.Errorf("%d 名学生重算失败", len(report.Failures))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&classID, "class", "", "开课班级ID")
	cmd.Flags().StringVar(&studentID, "student", "", "学号（为空时重算全班）")
	_ = cmd.MarkFlagRequired("class")
	return cmd
}

// ── gpa ──

func newGPACmd(a *app) *cobra.Command {
	var studentID string

	cmd := &cobra.Command{
		Use:   "gpa",
		Short: "计算学生 GPA",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			gpa, err := a.svc.GPA.ComputeGPA(cmd.Context(), studentID)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), dto.GPAResponse{StudentID: studentID, GPA: gpa})
		},
	}
	cmd.Flags().StringVar(&studentID, "student", "", "学号")
	_ = cmd.MarkFlagRequired("student")
	return cmd
}

// ── validate-offering ──

func newValidateOfferingCmd(a *app) *cobra.Command {
	var (
		req    dto.OfferingRequest
		create bool
	)

	cmd := &cobra.Command{
		Use:   "validate-offering",
		Short: "校验开课请求的冲突，--create 时同时写入",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			if create {
				offering, err := a.svc.Offering.CreateOffering(ctx, &req)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), offering)
			}

			draft, err := a.svc.Offering.ValidateAndBuildOffering(ctx, &req)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), draft)
		},
	}

	f := cmd.Flags()
	f.StringVar(&req.Subject, "subject", "", "院系代码，如 CS")
	f.IntVar(&req.Number, "number", 0, "课程编号")
	f.StringVar(&req.Season, "season", "", "学期季节：Spring / Summer / Fall")
	f.IntVar(&req.Year, "year", 0, "学年")
	f.StringVar(&req.StartTime, "start", "", "开始时刻 HH:MM[:SS]")
	f.StringVar(&req.EndTime, "end", "", "结束时刻 HH:MM[:SS]")
	f.StringVar(&req.Location, "location", "", "上课地点")
	f.StringVar(&req.InstructorUID, "instructor", "", "授课教师学工号")
	f.BoolVar(&create, "create", false, "校验通过后创建开课")
	for _, name := range []string{"subject", "number", "season", "year", "start", "end", "location", "instructor"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}
