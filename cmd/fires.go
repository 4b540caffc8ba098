package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/edakit/internal/datasets"
	"github.com/KaramelBytes/edakit/internal/ingest"
	"github.com/KaramelBytes/edakit/internal/mapreduce"
	"github.com/KaramelBytes/edakit/internal/run"
	"github.com/KaramelBytes/edakit/internal/warehouse"
)

var (
	fmField        int
	fmDelimiter    string
	fmHeaderPrefix string

	fsInput   string
	fsOutput  string
	fsBinary  string
	fsNoWait  bool
	fhLocal   string
	fhInpath  string
	fhLocalIn bool
)

var firesCmd = &cobra.Command{
	Use:   "fires",
	Short: "Forest fire analysis with Hadoop streaming and Hive",
}

var firesCountCmd = &cobra.Command{
	Use:   "count <forestfires.csv>",
	Short: "Count fires by month with the MapReduce job run in process",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		counts, err := datasets.CountByMonth(cmd.Context(), dataPath(args[0]))
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "MapReduce Results (Fires by Month):")
		months, _ := counts.Column("month")
		n, _ := counts.Column("count")
		for i := range months {
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", months[i], n[i])
		}
		return nil
	},
}

var firesMapCmd = &cobra.Command{
	Use:   "map",
	Short: "Streaming mapper: read CSV lines on stdin, emit <field>\\t1",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		m := mapreduce.FieldCountMapper{Field: fmField, Delimiter: fmDelimiter, HeaderPrefix: fmHeaderPrefix}
		return mapreduce.RunMap(cmd.InOrStdin(), cmd.OutOrStdout(), m)
	},
}

var firesReduceCmd = &cobra.Command{
	Use:   "reduce",
	Short: "Streaming reducer: sum the counts of consecutive equal keys on stdin",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return mapreduce.RunReduce(cmd.InOrStdin(), cmd.OutOrStdout(), mapreduce.SumReducer{})
	},
}

var firesSubmitCmd = &cobra.Command{
	Use:   "submit",
	Short: "Write mapper/reducer wrappers, submit the streaming job and read back its output",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := currentConfig()
		if err != nil {
			return err
		}
		bin := fsBinary
		if bin == "" {
			if bin, err = os.Executable(); err != nil {
				return fmt.Errorf("resolve executable: %w", err)
			}
		}
		job := mapreduce.StreamingJob{
			Hadoop: c.Hadoop.Bin,
			HDFS:   c.Hadoop.HDFSBin,
			Jar:    c.Hadoop.StreamingJar,
			Input:  firstNonEmpty(fsInput, c.Hadoop.Input),
			Output: firstNonEmpty(fsOutput, c.Hadoop.Output),
		}
		r, err := newRun("fires", cmd.CommandPath(), map[string]string{"input": job.Input, "output": job.Output})
		if err != nil {
			return err
		}
		return finish(cmd.OutOrStdout(), r, func() error {
			if job.Mapper, job.Reducer, err = mapreduce.WriteScripts(r.Dir(), bin, datasets.FiresMonthField, datasets.FiresHeaderPrefix); err != nil {
				return err
			}
			for _, s := range []string{job.Mapper, job.Reducer} {
				if _, err := r.AddArtifact(run.KindScript, s, "streaming wrapper"); err != nil {
					return err
				}
			}
			r.Params["command"] = job.Command()
			fmt.Fprintln(cmd.OutOrStdout(), "Running MapReduce job...")
			if err := job.Submit(cmd.Context()); err != nil {
				return err
			}
			if fsNoWait {
				return nil
			}
			kvs, err := job.Cat(cmd.Context())
			if err != nil {
				return err
			}
			rep, err := datasets.Fires(cmd.Context(), nil, datasets.FiresOptions{Counts: kvs})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), rep.Markdown())
			return saveReport(r, rep)
		}())
	},
}

var firesHiveCmd = &cobra.Command{
	Use:   "hive",
	Short: "Create and load the forest_fires table, then run the average-area and top-5 queries",
	Long: `Runs against HiveServer2 from the config (hive.*). With --local <csv> the same
statements are evaluated in process over the CSV instead, and the MapReduce
month count is included.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := currentConfig()
		if err != nil {
			return err
		}
		var wh warehouse.Warehouse
		opt := datasets.FiresOptions{LoadPath: firstNonEmpty(fhInpath, c.Hadoop.Input), LoadLocal: fhLocalIn}
		if fhLocal != "" {
			wh = warehouse.NewLocal(ingest.Options{})
			local := dataPath(fhLocal)
			opt.DataPath, opt.LoadPath = local, local
		} else {
			client, err := warehouse.Dial(warehouse.HiveConfig{
				Host:     c.Hive.Host,
				Port:     c.Hive.Port,
				Auth:     c.Hive.Auth,
				Database: c.Hive.Database,
				Username: c.Hive.Username,
				Password: c.Hive.Password,
			})
			if err != nil {
				return err
			}
			defer client.Close()
			wh = warehouse.Remote{Client: client}
		}
		r, err := newRun("fires", cmd.CommandPath(), map[string]string{"load_path": opt.LoadPath})
		if err != nil {
			return err
		}
		return finish(cmd.OutOrStdout(), r, func() error {
			stmts := []string{datasets.FiresSchema().SQL(), datasets.AvgAreaByMonth().SQL(), datasets.TopBurnConditions().SQL()}
			for i, s := range stmts {
				name := fmt.Sprintf("query_%d.hql", i+1)
				if _, err := r.WriteText(name, run.KindQuery, "HiveQL statement", s+"\n"); err != nil {
					return err
				}
			}
			rep, err := datasets.Fires(cmd.Context(), wh, opt)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), rep.Markdown())
			return saveReport(r, rep)
		}())
	},
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func init() {
	rootCmd.AddCommand(firesCmd)
	firesCmd.AddCommand(firesCountCmd, firesMapCmd, firesReduceCmd, firesSubmitCmd, firesHiveCmd)

	firesMapCmd.Flags().IntVar(&fmField, "field", datasets.FiresMonthField, "zero-based field to count by")
	firesMapCmd.Flags().StringVar(&fmDelimiter, "delimiter", ",", "field delimiter")
	firesMapCmd.Flags().StringVar(&fmHeaderPrefix, "header-prefix", datasets.FiresHeaderPrefix, "skip lines starting with this prefix")

	firesSubmitCmd.Flags().StringVar(&fsInput, "input", "", "HDFS input path (default hadoop.input)")
	firesSubmitCmd.Flags().StringVar(&fsOutput, "output", "", "HDFS output directory (default hadoop.output)")
	firesSubmitCmd.Flags().StringVar(&fsBinary, "binary", "", "edakit binary invoked by the wrappers (default this executable)")
	firesSubmitCmd.Flags().BoolVar(&fsNoWait, "no-cat", false, "do not read the part files back")

	firesHiveCmd.Flags().StringVar(&fhLocal, "local", "", "evaluate in process over this CSV instead of connecting to Hive")
	firesHiveCmd.Flags().StringVar(&fhInpath, "inpath", "", "LOAD DATA path (default hadoop.input)")
	firesHiveCmd.Flags().BoolVar(&fhLocalIn, "load-local", false, "use LOAD DATA LOCAL INPATH")
}
