package handler

import (
	"time"

	"github.com/fittrack/internal/db"
	"github.com/fittrack/internal/service"
	"gorm.io/gorm"
)

// Options 为处理器共享服务的构造参数
type Options struct {
	JWTSecret  string
	TokenTTL   time.Duration
	Location   *time.Location
	BcryptCost int
	// Now 为空时使用系统时间；令牌签发始终使用系统时间
	Now func() time.Time
}

// API bundles shared dependencies for HTTP handlers.
type API struct {
	db      *gorm.DB
	users   *service.UserService
	tokens  *service.TokenService
	seances *service.SeanceService
	goals   *service.GoalService
	stats   *service.StatisticsService
	loc     *time.Location
	now     func() time.Time
}

// NewAPI constructs a handler set with shared services.
func NewAPI(gdb *gorm.DB, opts Options) *API {
	loc := opts.Location
	if loc == nil {
		loc = time.Local
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	seanceStore := db.NewSeanceStore(gdb)
	users := service.NewUserService(db.NewUserStore(gdb))
	if opts.BcryptCost > 0 {
		users = users.WithCost(opts.BcryptCost)
	}

	return &API{
		db:      gdb,
		users:   users,
		tokens:  service.NewTokenService(opts.JWTSecret, opts.TokenTTL),
		seances: service.NewSeanceService(seanceStore, loc).WithClock(now),
		goals:   service.NewGoalService(db.NewGoalStore(gdb), seanceStore, loc).WithClock(now),
		stats:   service.NewStatisticsService(seanceStore, loc),
		loc:     loc,
		now:     now,
	}
}

// DB exposes the underlying gorm instance.
func (a *API) DB() *gorm.DB {
	return a.db
}

// Goals 返回目标服务，供后台清扫任务复用
func (a *API) Goals() *service.GoalService {
	return a.goals
}

// Users 返回账户服务，供启动时初始化账号
func (a *API) Users() *service.UserService {
	return a.users
}
