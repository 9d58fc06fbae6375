package cmd

import (
	"bytes"
	"database/sql"
	"io"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/Amber-Agarwal/MESI-Protocol-and-Cache-Coherence/mem/workload"
)

func writeTrace(prefix string, core int, lines string) {
	path := workload.TraceFileName(prefix, core)
	Expect(os.WriteFile(path, []byte(lines), 0o644)).To(Succeed())
}

var _ = Describe("run", func() {
	var (
		dir    string
		prefix string
		out    *bytes.Buffer
		errOut *bytes.Buffer
	)

	execute := func(args ...string) error {
		root := newRootCmd()
		root.SetOut(out)
		root.SetErr(io.MultiWriter(errOut, GinkgoWriter))
		root.SetArgs(append([]string{"run"}, args...))

		return root.Execute()
	}

	BeforeEach(func() {
		dir = GinkgoT().TempDir()
		prefix = filepath.Join(dir, "app")
		out = new(bytes.Buffer)
		errOut = new(bytes.Buffer)

		writeTrace(prefix, 0, "W 0x00000000\n")
		writeTrace(prefix, 1, "R 0x00000000\n")
	})

	It("should print the report", func() {
		err := execute("-t", prefix, "--cores", "2", "-s", "1", "-E", "2",
			"-b", "5", "--check-invariants")

		Expect(err).NotTo(HaveOccurred())
		Expect(out.String()).To(ContainSubstring("Core 1 Statistics:"))
		Expect(out.String()).To(MatchRegexp(`Total Cycles: +216`))
		Expect(out.String()).To(ContainSubstring("Snoop snoop_supply: 1"))
	})

	It("should write the report to a file", func() {
		output := filepath.Join(dir, "report.txt")

		err := execute("-t", prefix, "--cores", "2", "-o", output)

		Expect(err).NotTo(HaveOccurred())
		Expect(out.Len()).To(BeZero())

		content, err := os.ReadFile(output)
		Expect(err).NotTo(HaveOccurred())
		Expect(string(content)).To(ContainSubstring("Overall Bus Summary:"))
	})

	It("should fail when the report file cannot be written", func() {
		if _, err := os.Stat("/dev/full"); err != nil {
			Skip("/dev/full is not available")
		}

		err := execute("-t", prefix, "--cores", "2", "-o", "/dev/full")

		Expect(err).To(HaveOccurred())
	})

	It("should fail when the report file cannot be created", func() {
		output := filepath.Join(dir, "missing", "report.txt")

		Expect(execute("-t", prefix, "--cores", "2", "-o", output)).
			To(MatchError(ContainSubstring("create report")))
	})

	It("should log bus transactions and snoops", func() {
		err := execute("-t", prefix, "--cores", "2", "--log-bus")

		Expect(err).NotTo(HaveOccurred())
		Expect(errOut.String()).
			To(ContainSubstring("ReadExclusive, core 0, 0x00000000"))
		Expect(errOut.String()).
			To(ContainSubstring("ReadShared, core 1, 0x00000000"))
		Expect(errOut.String()).
			To(MatchRegexp(`step, [0-9.]+, \d+, snoop_supply`))
		Expect(out.String()).To(ContainSubstring("Overall Bus Summary:"))
	})

	It("should dump the tag arrays", func() {
		err := execute("-t", prefix, "--cores", "2", "-s", "1", "-E", "2",
			"--dump-tags")

		Expect(err).NotTo(HaveOccurred())
		Expect(out.String()).To(ContainSubstring("Core 1 Tag Array:"))
		Expect(out.String()).To(MatchRegexp(`Set 0:.*State: S,`))
		Expect(out.String()).
			To(ContainSubstring("Set 1: [Tag: 0x0, State: I, Time: 0] " +
				"[Tag: 0x0, State: I, Time: 0]"))
	})

	It("should run with the monitoring server", func() {
		err := execute("-t", prefix, "--cores", "2", "--monitor")

		Expect(err).NotTo(HaveOccurred())
		Expect(out.String()).To(ContainSubstring("Overall Bus Summary:"))
	})

	It("should take defaults from the environment", func() {
		GinkgoT().Setenv("MESISIM_CORES", "2")
		GinkgoT().Setenv("MESISIM_TRACE", prefix)

		Expect(execute()).To(Succeed())
		Expect(out.String()).To(ContainSubstring("Core 1 Statistics:"))
		Expect(out.String()).NotTo(ContainSubstring("Core 2 Statistics:"))
	})

	It("should prefer flags over the environment", func() {
		GinkgoT().Setenv("MESISIM_CORES", "8")

		Expect(execute("-t", prefix, "--cores", "2")).To(Succeed())
	})

	It("should reject bad environment values", func() {
		GinkgoT().Setenv("MESISIM_CORES", "many")

		Expect(execute("-t", prefix)).To(MatchError(
			ContainSubstring("MESISIM_CORES")))
	})

	It("should reject a missing trace prefix", func() {
		Expect(execute("--cores", "2")).To(HaveOccurred())
	})

	It("should reject invalid geometry", func() {
		Expect(execute("-t", prefix, "--cores", "2", "-E", "0")).
			To(HaveOccurred())
		Expect(execute("-t", prefix, "--cores", "2", "-s", "20", "-b", "20")).
			To(HaveOccurred())
	})

	It("should reject a monitor port without monitoring", func() {
		Expect(execute("-t", prefix, "--cores", "2", "--monitor-port", "8080")).
			To(HaveOccurred())
	})

	It("should fail on missing trace files", func() {
		Expect(execute("-t", prefix, "--cores", "3")).
			To(MatchError(ContainSubstring("open trace")))
	})

	It("should fail when the cycle limit is hit", func() {
		err := execute("-t", prefix, "--cores", "2", "--max-cycles", "10")

		Expect(err).To(HaveOccurred())
		Expect(out.String()).To(ContainSubstring("Error:"))
	})

	It("should record statistics and bus transactions", func() {
		db := filepath.Join(dir, "run")

		err := execute("-t", prefix, "--cores", "2", "--db", db, "--trace-bus")
		Expect(err).NotTo(HaveOccurred())

		conn, err := sql.Open("sqlite3", db+".sqlite3")
		Expect(err).NotTo(HaveOccurred())
		defer conn.Close()

		var n int
		Expect(conn.QueryRow("SELECT COUNT(*) FROM core_statistics").
			Scan(&n)).To(Succeed())
		Expect(n).To(Equal(2))

		Expect(conn.QueryRow("SELECT COUNT(*) FROM bus_transactions").
			Scan(&n)).To(Succeed())
		Expect(n).To(Equal(2))
	})
})
