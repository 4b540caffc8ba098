package warehouse

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/beltran/gohive"

	"github.com/KaramelBytes/edakit/internal/mapreduce"
	"github.com/KaramelBytes/edakit/internal/table"
)

// HiveConfig addresses a HiveServer2 endpoint.
type HiveConfig struct {
	Host     string `mapstructure:"host" validate:"required"`
	Port     int    `mapstructure:"port" validate:"min=1,max=65535"`
	Auth     string `mapstructure:"auth" validate:"omitempty,oneof=NONE NOSASL KERBEROS LDAP CUSTOM"`
	Database string `mapstructure:"database"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

// HiveClient runs statements over one HiveServer2 connection.
type HiveClient struct {
	conn *gohive.Connection
	addr string
}

func toolError(addr string, args []string, err error) error {
	return &mapreduce.ExternalToolError{Tool: "hive@" + addr, Args: args, Err: err}
}

// Dial opens a connection. Failures are external tool errors.
func Dial(cfg HiveConfig) (*HiveClient, error) {
	if cfg.Host == "" {
		return nil, errors.New("hive: host is required")
	}
	if cfg.Port == 0 {
		cfg.Port = 10000
	}
	if cfg.Auth == "" {
		cfg.Auth = "NONE"
	}
	conf := gohive.NewConnectConfiguration()
	if cfg.Database != "" {
		conf.Database = cfg.Database
	}
	conf.Username = cfg.Username
	conf.Password = cfg.Password
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	conn, err := gohive.Connect(cfg.Host, cfg.Port, cfg.Auth, conf)
	if err != nil {
		return nil, toolError(addr, []string{"connect"}, err)
	}
	slog.Debug("hive connected", slog.String("addr", addr), slog.String("database", conf.Database))
	return &HiveClient{conn: conn, addr: addr}, nil
}

func (c *HiveClient) Close() error {
	if c == nil || c.conn == nil {
		return nil
	}
	return c.conn.Close()
}

// Exec runs a statement that returns no rows.
func (c *HiveClient) Exec(ctx context.Context, stmt string) error {
	cursor := c.conn.Cursor()
	defer cursor.Close()
	slog.Debug("hive exec", slog.String("sql", oneLine(stmt)))
	cursor.Exec(ctx, stmt)
	if cursor.Err != nil {
		return toolError(c.addr, []string{oneLine(stmt)}, cursor.Err)
	}
	return nil
}

// Query runs a statement and collects its rows into a table.
func (c *HiveClient) Query(ctx context.Context, stmt string) (*table.Table, error) {
	cursor := c.conn.Cursor()
	defer cursor.Close()
	slog.Debug("hive query", slog.String("sql", oneLine(stmt)))
	cursor.Exec(ctx, stmt)
	if cursor.Err != nil {
		return nil, toolError(c.addr, []string{oneLine(stmt)}, cursor.Err)
	}
	var names []string
	for _, d := range cursor.Description() {
		names = append(names, d[0])
	}
	var rows [][]table.Value
	for cursor.HasMore(ctx) {
		m := cursor.RowMap(ctx)
		if cursor.Err != nil {
			return nil, toolError(c.addr, []string{oneLine(stmt)}, cursor.Err)
		}
		row := make([]table.Value, len(names))
		for i, n := range names {
			row[i] = fromHive(m[n])
		}
		rows = append(rows, row)
	}
	if cursor.Err != nil {
		return nil, toolError(c.addr, []string{oneLine(stmt)}, cursor.Err)
	}
	short := make([]string, len(names))
	for i, n := range names {
		short[i] = unqualify(n)
	}
	return table.FromRows(short, rows)
}

// unqualify strips the "table." prefix Hive puts on result column names.
func unqualify(name string) string {
	if i := strings.LastIndex(name, "."); i >= 0 {
		return name[i+1:]
	}
	return name
}

func fromHive(v interface{}) table.Value {
	switch x := v.(type) {
	case nil:
		return table.Missing()
	case int8:
		return table.Int(int64(x))
	case int16:
		return table.Int(int64(x))
	case int32:
		return table.Int(int64(x))
	case int64:
		return table.Int(x)
	case int:
		return table.Int(int64(x))
	case float32:
		return table.Float(float64(x))
	case float64:
		return table.Float(x)
	case bool:
		return table.Bool(x)
	case string:
		return table.Text(x)
	case []byte:
		return table.Text(string(x))
	}
	return table.Text(fmt.Sprint(v))
}

func oneLine(s string) string { return strings.Join(strings.Fields(s), " ") }
