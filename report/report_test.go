package report_test

import (
	"bytes"
	"database/sql"
	"errors"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"

	"github.com/Amber-Agarwal/MESI-Protocol-and-Cache-Coherence/datarecording"
	"github.com/Amber-Agarwal/MESI-Protocol-and-Cache-Coherence/mem/cache/coherence"
	"github.com/Amber-Agarwal/MESI-Protocol-and-Cache-Coherence/report"
)

func sampleResult() coherence.Result {
	return coherence.Result{
		Cycles: 216,
		Cores: []coherence.Statistics{
			{
				Instructions:       1,
				Writes:             1,
				WriteMisses:        1,
				CacheMisses:        1,
				WriteBacks:         1,
				Interventions:      1,
				MemoryTransactions: 1,
				ExecutionCycles:    1,
				IdleCycles:         99,
				BytesTransferred:   64,
			},
			{
				Instructions:          1,
				Reads:                 1,
				ReadMisses:            1,
				CacheMisses:           1,
				CacheToCacheTransfers: 1,
				ExecutionCycles:       1,
				IdleCycles:            115,
				BytesTransferred:      32,
			},
		},
		Bus: coherence.BusStatistics{
			ReadSharedTransactions:    1,
			ReadExclusiveTransactions: 1,
			WriteBackTransactions:     1,
			BytesTransferred:          96,
			BusyCycles:                216,
		},
	}
}

var _ = Describe("WriteText", func() {
	It("should print every core and the bus", func() {
		buf := new(bytes.Buffer)

		Expect(report.WriteText(buf, sampleResult())).To(Succeed())

		out := buf.String()
		Expect(out).To(ContainSubstring("Core 0 Statistics:"))
		Expect(out).To(ContainSubstring("Core 1 Statistics:"))
		Expect(out).To(MatchRegexp(`Cache Miss Rate: +100.00%`))
		Expect(out).To(MatchRegexp(`Idle Cycles: +115`))
		Expect(out).To(MatchRegexp(`Total Bus Transactions: +3`))
		Expect(out).To(MatchRegexp(`Total Bus Traffic \(Bytes\): +96`))
		Expect(out).To(MatchRegexp(`Total Cycles: +216`))
		Expect(out).NotTo(ContainSubstring("Error:"))
	})

	It("should print the error", func() {
		result := sampleResult()
		result.Err = errors.New("cycle limit reached")
		buf := new(bytes.Buffer)

		Expect(report.WriteText(buf, result)).To(Succeed())

		Expect(buf.String()).To(MatchRegexp(`Error: +cycle limit reached`))
	})
})

var _ = Describe("Record", func() {
	It("should create both tables and insert one row per core", func() {
		mockCtrl := gomock.NewController(GinkgoT())
		recorder := NewMockDataRecorder(mockCtrl)

		recorder.EXPECT().CreateTable(report.CoreTable, gomock.Any())
		recorder.EXPECT().CreateTable(report.BusTable, gomock.Any())
		recorder.EXPECT().InsertData(report.CoreTable, gomock.Any()).Times(2)
		recorder.EXPECT().InsertData(report.BusTable, gomock.Any())
		recorder.EXPECT().Flush()

		report.Record(recorder, sampleResult())
	})

	It("should store the counters in sqlite", func() {
		db, err := sql.Open("sqlite3",
			filepath.Join(GinkgoT().TempDir(), "report.sqlite3"))
		Expect(err).NotTo(HaveOccurred())

		recorder := datarecording.NewWithDB(db)
		defer recorder.Close()

		report.Record(recorder, sampleResult())

		var idle, c2c uint64
		err = db.QueryRow(`SELECT IdleCycles, CacheToCacheTransfers
			FROM core_statistics WHERE Core = 1`).Scan(&idle, &c2c)
		Expect(err).NotTo(HaveOccurred())
		Expect(idle).To(Equal(uint64(115)))
		Expect(c2c).To(Equal(uint64(1)))

		var cycles, transactions uint64
		err = db.QueryRow(`SELECT Cycles, Transactions
			FROM bus_statistics`).Scan(&cycles, &transactions)
		Expect(err).NotTo(HaveOccurred())
		Expect(cycles).To(Equal(uint64(216)))
		Expect(transactions).To(Equal(uint64(3)))
	})
})
