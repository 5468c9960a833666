package repository

import (
	"context"

	"gorm.io/gorm"

	"lms-core/internal/model"
)

// UserRepository 用户数据访问接口
type UserRepository interface {
	GetByUID(ctx context.Context, uid string) (*model.User, error)
	// FindInstructor 按 uid 查找教师，非教师角色视为不存在
	FindInstructor(ctx context.Context, uid string) (*model.User, error)
}

// userRepo UserRepository 的 GORM 实现
type userRepo struct {
	db *gorm.DB
}

// NewUserRepo 创建 UserRepository 实例
func NewUserRepo(db *gorm.DB) UserRepository {
	return &userRepo{db: db}
}

func (r *userRepo) GetByUID(ctx context.Context, uid string) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).
		Where("uid = ?", uid).
		First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepo) FindInstructor(ctx context.Context, uid string) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).
		Where("uid = ? AND role = ?", uid, model.RoleProfessor).
		First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}
