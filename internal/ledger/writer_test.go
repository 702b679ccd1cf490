package ledger_test

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"ptr/internal/domain"
	"ptr/internal/ledger"
)

var fixedTime = time.Date(2026, 10, 16, 10, 0, 0, 0, time.UTC)

func readLines(path string) []string {
	data, err := os.ReadFile(path)
	Expect(err).NotTo(HaveOccurred())
	return strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
}

var _ = Describe("Writer", func() {
	var dir string

	BeforeEach(func() {
		var err error
		dir, err = os.MkdirTemp("", "ptr-ledger-*")
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		os.RemoveAll(dir)
	})

	It("creates the record directory and the single-process file", func() {
		recordDir := filepath.Join(dir, "nested", "replay")
		w, err := ledger.Open(recordDir, "")
		Expect(err).NotTo(HaveOccurred())
		defer w.Close()

		Expect(w.Path()).To(Equal(filepath.Join(recordDir, ".ptr-replay.jsonl")))
		_, err = os.Stat(w.Path())
		Expect(err).NotTo(HaveOccurred())
	})

	It("names worker files after the worker tag", func() {
		w, err := ledger.Open(dir, "gw1")
		Expect(err).NotTo(HaveOccurred())
		defer w.Close()

		Expect(filepath.Base(w.Path())).To(Equal(".ptr-replay-gw1.jsonl"))
	})

	It("writes one line per event, visible before close", func() {
		w, err := ledger.Open(dir, "", ledger.EpochOpt("e1"), ledger.TimeSourceOpt(func() time.Time { return fixedTime }))
		Expect(err).NotTo(HaveOccurred())
		defer w.Close()

		Expect(w.RecordStart("tests/ATest.php::testOne")).To(Succeed())
		Expect(readLines(w.Path())).To(Equal([]string{
			`{"event":"started","nodeid":"tests/ATest.php::testOne","epoch":"e1","time":"2026-10-16T10:00:00Z"}`,
		}))

		Expect(w.RecordFinish("tests/ATest.php::testOne", domain.OutcomePassed)).To(Succeed())
		Expect(readLines(w.Path())).To(HaveLen(2))
		Expect(readLines(w.Path())[1]).To(ContainSubstring(`"event":"finished"`))
		Expect(readLines(w.Path())[1]).To(ContainSubstring(`"outcome":"passed"`))
	})

	It("records start order equal to execution order with a finish for each", func() {
		ids := []string{"a.php::t1", "a.php::t2", "b.php::t1", "c.php::t9"}

		w, err := ledger.Open(dir, "")
		Expect(err).NotTo(HaveOccurred())
		for _, id := range ids {
			Expect(w.RecordStart(id)).To(Succeed())
			Expect(w.RecordFinish(id, domain.OutcomePassed)).To(Succeed())
		}
		Expect(w.Close()).To(Succeed())

		entries, err := ledger.ReadFile(w.Path())
		Expect(err).NotTo(HaveOccurred())

		var started []string
		finished := map[string]bool{}
		for _, e := range entries {
			switch e.Kind {
			case ledger.Started:
				started = append(started, e.TestID)
			case ledger.Finished:
				finished[e.TestID] = true
			}
		}
		Expect(started).To(Equal(ids))
		for _, id := range ids {
			Expect(finished).To(HaveKey(id))
		}
	})

	It("appends to an existing file instead of truncating it", func() {
		w, err := ledger.Open(dir, "")
		Expect(err).NotTo(HaveOccurred())
		Expect(w.RecordStart("first.php::t")).To(Succeed())
		Expect(w.Close()).To(Succeed())

		w, err = ledger.Open(dir, "")
		Expect(err).NotTo(HaveOccurred())
		Expect(w.RecordStart("second.php::t")).To(Succeed())
		Expect(w.Close()).To(Succeed())

		entries, err := ledger.ReadFile(w.Path())
		Expect(err).NotTo(HaveOccurred())
		Expect(entries).To(HaveLen(2))
		Expect(entries[0].TestID).To(Equal("first.php::t"))
		Expect(entries[1].TestID).To(Equal("second.php::t"))
	})

	It("drops a torn trailing line left by a crashed writer", func() {
		path := filepath.Join(dir, ledger.FileName(""))
		content := `{"event":"started","nodeid":"a.php::t","time":"2026-10-16T10:00:00Z"}` + "\n" + `{"event":"sta`
		Expect(os.WriteFile(path, []byte(content), 0644)).To(Succeed())

		w, err := ledger.Open(dir, "")
		Expect(err).NotTo(HaveOccurred())
		Expect(w.Repaired()).To(Equal(int64(len(`{"event":"sta`))))
		Expect(w.RecordStart("b.php::t")).To(Succeed())
		Expect(w.Close()).To(Succeed())

		entries, err := ledger.ReadFile(path)
		Expect(err).NotTo(HaveOccurred())
		Expect(entries).To(HaveLen(2))
		Expect(entries[1].TestID).To(Equal("b.php::t"))
	})

	It("keeps a complete trailing entry that lost its newline", func() {
		path := filepath.Join(dir, ledger.FileName("gw0"))
		content := `{"event":"started","nodeid":"a.php::t","time":"2026-10-16T10:00:00Z"}` + "\n" +
			`{"event":"finished","nodeid":"a.php::t","time":"2026-10-16T10:00:01Z","outcome":"passed"}`
		Expect(os.WriteFile(path, []byte(content), 0644)).To(Succeed())

		before, err := ledger.ReadFile(path)
		Expect(err).NotTo(HaveOccurred())
		Expect(before).To(HaveLen(2))

		w, err := ledger.Open(dir, "gw0")
		Expect(err).NotTo(HaveOccurred())
		Expect(w.Repaired()).To(BeZero())
		Expect(w.RecordStart("b.php::t")).To(Succeed())
		Expect(w.Close()).To(Succeed())

		entries, err := ledger.ReadFile(path)
		Expect(err).NotTo(HaveOccurred())
		Expect(entries).To(HaveLen(3))
		Expect(entries[1].Kind).To(Equal(ledger.Finished))
		Expect(entries[1].Outcome).To(Equal(domain.OutcomePassed))
		Expect(entries[2].TestID).To(Equal("b.php::t"))
		Expect(readLines(path)[1]).To(HaveSuffix(`"outcome":"passed"}`))
	})

	It("keeps writing to the resolved path when the working directory changes", func() {
		wd, err := os.Getwd()
		Expect(err).NotTo(HaveOccurred())
		defer os.Chdir(wd)

		Expect(os.Chdir(dir)).To(Succeed())
		Expect(os.Mkdir("subdir", 0755)).To(Succeed())

		w, err := ledger.Open("replay", "")
		Expect(err).NotTo(HaveOccurred())
		Expect(w.RecordStart("t.php::test1")).To(Succeed())

		Expect(os.Chdir("subdir")).To(Succeed())
		Expect(w.RecordStart("t.php::test2")).To(Succeed())
		Expect(w.Close()).To(Succeed())

		entries, err := ledger.ReadFile(filepath.Join(dir, "replay", ledger.FileName("")))
		Expect(err).NotTo(HaveOccurred())
		Expect(entries).To(HaveLen(2))
		_, err = os.Stat(filepath.Join(dir, "subdir", "replay"))
		Expect(os.IsNotExist(err)).To(BeTrue())
	})

	It("rejects unknown outcomes and writes after close", func() {
		w, err := ledger.Open(dir, "")
		Expect(err).NotTo(HaveOccurred())
		Expect(w.RecordFinish("a.php::t", domain.Outcome("exploded"))).NotTo(Succeed())
		Expect(w.Close()).To(Succeed())
		Expect(w.Close()).To(Succeed())
		Expect(w.RecordStart("a.php::t")).NotTo(Succeed())
	})

	It("fails loudly when the directory cannot be created", func() {
		blocker := filepath.Join(dir, "file")
		Expect(os.WriteFile(blocker, nil, 0644)).To(Succeed())

		_, err := ledger.Open(filepath.Join(blocker, "replay"), "")
		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring(blocker))
	})
})

var _ = Describe("FileName", func() {
	It("round-trips worker tags", func() {
		for _, tag := range []string{"", "gw0", "gw12"} {
			got, ok := ledger.ParseFileName(ledger.FileName(tag))
			Expect(ok).To(BeTrue())
			Expect(got).To(Equal(tag))
		}
	})

	It("ignores unrelated files", func() {
		for _, name := range []string{".ptr-session.json", "replay.jsonl", ".ptr-replay-.jsonl", ".ptr-replay.txt"} {
			_, ok := ledger.ParseFileName(name)
			Expect(ok).To(BeFalse(), name)
		}
	})
})
