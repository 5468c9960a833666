package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"lms-core/config"
)

// Client Redis 客户端封装
// 当前用于 GPA 缓存与写接口限流
type Client struct {
	rdb    *goredis.Client
	logger *zap.Logger
}

// NewClient 创建 Redis 连接并执行 Ping 健康检查
func NewClient(cfg *config.RedisConfig, logger *zap.Logger) (*Client, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("Redis 连接失败: %w", err)
	}

	logger.Info("Redis 连接成功", zap.String("addr", cfg.Addr))

	return &Client{rdb: rdb, logger: logger}, nil
}

// Wrap 使用已有的 go-redis 客户端构造 Client（测试与 CLI 复用连接）
func Wrap(rdb *goredis.Client, logger *zap.Logger) *Client {
	return &Client{rdb: rdb, logger: logger}
}

// ── GPA 缓存 ──
//
// 每个学生一个代数计数器 gpa:gen:<uid>，失效时自增。
// 读取时一并取回代数，回填时只有代数未变才写入，
// 避免旧成绩算出的 GPA 在失效之后被写回缓存。

const (
	gpaPrefix    = "gpa:"
	gpaGenPrefix = "gpa:gen:"
)

// setGPAIfGenScript KEYS[1]=gpa 键 KEYS[2]=代数键 ARGV[1]=值 ARGV[2]=读取时的代数 ARGV[3]=TTL 毫秒
var setGPAIfGenScript = goredis.NewScript(`
local cur = redis.call('GET', KEYS[2])
if cur == false then cur = '0' end
if cur ~= ARGV[2] then return 0 end
if tonumber(ARGV[3]) > 0 then
  redis.call('SET', KEYS[1], ARGV[1], 'PX', ARGV[3])
else
  redis.call('SET', KEYS[1], ARGV[1])
end
return 1
`)

// GetGPA 读取学生 GPA 缓存与当前代数，未命中时 ok=false
func (c *Client) GetGPA(ctx context.Context, studentID string) (gpa float64, ok bool, gen int64, err error) {
	vals, err := c.rdb.MGet(ctx, gpaPrefix+studentID, gpaGenPrefix+studentID).Result()
	if err != nil {
		return 0, false, 0, err
	}

	if raw, isStr := vals[1].(string); isStr {
		gen, err = strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return 0, false, 0, fmt.Errorf("GPA 缓存代数无效 %q: %w", raw, err)
		}
	}

	raw, isStr := vals[0].(string)
	if !isStr {
		return 0, false, gen, nil
	}
	gpa, err = strconv.ParseFloat(raw, 64)
	if err != nil {
		// 脏数据直接视为未命中
		return 0, false, gen, nil
	}
	return gpa, true, gen, nil
}

// SetGPA 代数仍为 gen 时写入学生 GPA 缓存，返回是否写入
func (c *Client) SetGPA(ctx context.Context, studentID string, gpa float64, gen int64, ttl time.Duration) (bool, error) {
	n, err := setGPAIfGenScript.Run(ctx, c.rdb,
		[]string{gpaPrefix + studentID, gpaGenPrefix + studentID},
		strconv.FormatFloat(gpa, 'f', 2, 64),
		strconv.FormatInt(gen, 10),
		ttl.Milliseconds(),
	).Int()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// InvalidateGPA 代数自增并删除学生 GPA 缓存（成绩写入后调用）
func (c *Client) InvalidateGPA(ctx context.Context, studentID string) error {
	_, err := c.rdb.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.Incr(ctx, gpaGenPrefix+studentID)
		pipe.Del(ctx, gpaPrefix+studentID)
		return nil
	})
	return err
}

// ── 限流 ──

// CheckRateLimit 固定窗口计数限流：窗口内第 limit+1 次请求起返回 false
// 计数与过期时间在同一事务中下发，计数键不会遗留为永不过期
func (c *Client) CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	var incr *goredis.IntCmd
	_, err := c.rdb.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.SetNX(ctx, key, 0, window)
		incr = pipe.Incr(ctx, key)
		return nil
	})
	if err != nil {
		return false, err
	}
	return incr.Val() <= int64(limit), nil
}

// Close 关闭 Redis 连接
func (c *Client) Close() error {
	return c.rdb.Close()
}
