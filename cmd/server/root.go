// cmd/server/root.go
package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/Corphon/SceneBoard/internal/app"
	"github.com/Corphon/SceneBoard/internal/config"
	"github.com/Corphon/SceneBoard/internal/models"
	"github.com/Corphon/SceneBoard/internal/services"
	"github.com/Corphon/SceneBoard/internal/storage"
	"github.com/Corphon/SceneBoard/internal/utils"
	"github.com/spf13/cobra"
)

// startServer 初始化并运行服务器，测试中替换
var startServer = func(dataDir string) error {
	if err := app.Initialize(dataDir); err != nil {
		return err
	}
	return app.Run()
}

func newRootCommand() *cobra.Command {
	opts := &serveOptions{}
	rootCmd := &cobra.Command{
		Use:           "sceneboard",
		Short:         "AI 分镜工作台服务器",
		Long:          "AI 分镜工作台服务器。不带子命令时等同于 serve。",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd)
		},
	}
	opts.bind(rootCmd)

	rootCmd.AddCommand(newServeCommand())
	rootCmd.AddCommand(newLooksCommand())
	rootCmd.AddCommand(newExportsCommand())
	return rootCmd
}

// serveOptions 服务器参数，设置后覆盖环境变量
type serveOptions struct {
	port    string
	dataDir string
	debug   bool
}

func (o *serveOptions) bind(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&o.port, "port", "p", "", "监听端口 (默认读取 PORT)")
	cmd.Flags().StringVar(&o.dataDir, "data-dir", "", "数据目录 (默认读取 DATA_DIR)")
	cmd.Flags().BoolVar(&o.debug, "debug", false, "调试模式")
}

func (o *serveOptions) run(cmd *cobra.Command) error {
	flags := map[string]string{}
	if cmd.Flags().Changed("port") {
		flags["PORT"] = o.port
	}
	if cmd.Flags().Changed("data-dir") {
		flags["DATA_DIR"] = o.dataDir
	}
	if cmd.Flags().Changed("debug") {
		flags["DEBUG_MODE"] = strconv.FormatBool(o.debug)
	}
	for key, value := range flags {
		if err := os.Setenv(key, value); err != nil {
			return fmt.Errorf("设置 %s 失败: %w", key, err)
		}
	}

	base, err := config.Load()
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "🚀 启动 SceneBoard，端口 %s\n", base.Port)
	return startServer(base.DataDir)
}

// newServeCommand 启动 HTTP 服务器
func newServeCommand() *cobra.Command {
	opts := &serveOptions{}
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "启动服务器",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd)
		},
	}
	opts.bind(cmd)
	return cmd
}

// newLooksCommand 打印内置滤镜和机位
func newLooksCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "looks",
		Short: "列出电影质感滤镜和可选机位",
		RunE: func(cmd *cobra.Command, args []string) error {
			rows := make([][]string, 0, len(models.CinematicLooks))
			for i, look := range models.CinematicLooks {
				category, _, _ := strings.Cut(look.Category, " (")
				rows = append(rows, []string{strconv.Itoa(i + 1), category, look.Title, look.Description})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"#", "分类", "名称", "说明"},
				rows,
				[]columnAlignment{alignRight},
			))

			shots := make([][]string, len(services.CameraShots))
			for i, shot := range services.CameraShots {
				shots[i] = []string{strconv.Itoa(i + 1), shot}
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"#", "机位"}, shots, []columnAlignment{alignRight}))
			return nil
		},
	}
}

// newExportsCommand 列出数据目录中已保存的 ZIP
func newExportsCommand() *cobra.Command {
	var dataDir string

	cmd := &cobra.Command{
		Use:   "exports",
		Short: "列出已保存的导出文件",
		RunE: func(cmd *cobra.Command, args []string) error {
			// 只输出表格
			logger := utils.GetLogger()
			logger.Enable(false)
			defer logger.Enable(true)

			if dataDir == "" {
				base, err := config.Load()
				if err != nil {
					return err
				}
				dataDir = base.DataDir
			}

			fs, err := storage.NewFileStorage(dataDir)
			if err != nil {
				return err
			}
			defer fs.Close()

			files, err := fs.ListFiles(services.ExportDir)
			if err != nil {
				return err
			}
			if len(files) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "没有已保存的导出文件")
				return nil
			}

			rows := make([][]string, len(files))
			for i, f := range files {
				rows[i] = []string{f.Name, strconv.FormatInt(f.Size, 10), f.UpdatedAt.Format("2006-01-02 15:04:05")}
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"文件", "字节", "修改时间"},
				rows,
				[]columnAlignment{alignLeft, alignRight, alignLeft},
			))
			return nil
		},
	}

	cmd.Flags().StringVar(&dataDir, "data-dir", "", "数据目录 (默认读取 DATA_DIR)")
	return cmd
}
