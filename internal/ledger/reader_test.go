package ledger_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"ptr/internal/domain"
	"ptr/internal/ledger"
)

func started(id string) string {
	return `{"event":"started","nodeid":"` + id + `","time":"2026-10-16T10:00:00Z"}`
}

func finished(id string) string {
	return `{"event":"finished","nodeid":"` + id + `","time":"2026-10-16T10:00:01Z","outcome":"passed"}`
}

var _ = Describe("ReadFile", func() {
	var (
		dir  string
		path string
	)

	write := func(lines ...string) {
		Expect(os.WriteFile(path, []byte(strings.Join(lines, "")), 0644)).To(Succeed())
	}

	BeforeEach(func() {
		var err error
		dir, err = os.MkdirTemp("", "ptr-ledger-*")
		Expect(err).NotTo(HaveOccurred())
		path = filepath.Join(dir, ledger.FileName(""))
	})

	AfterEach(func() {
		os.RemoveAll(dir)
	})

	It("parses started and finished entries in order", func() {
		write(started("a::t")+"\n", started("b::t")+"\n", finished("b::t")+"\n")

		entries, err := ledger.ReadFile(path)
		Expect(err).NotTo(HaveOccurred())
		Expect(entries).To(HaveLen(3))
		Expect(entries[0].Kind).To(Equal(ledger.Started))
		Expect(entries[0].TestID).To(Equal("a::t"))
		Expect(entries[2].Kind).To(Equal(ledger.Finished))
		Expect(entries[2].Outcome).To(Equal(domain.OutcomePassed))
	})

	It("returns nothing for an empty file", func() {
		write()

		entries, err := ledger.ReadFile(path)
		Expect(err).NotTo(HaveOccurred())
		Expect(entries).To(BeEmpty())
	})

	It("skips blank lines", func() {
		write(started("a::t")+"\n", "\n", "   \n", started("b::t")+"\n")

		entries, err := ledger.ReadFile(path)
		Expect(err).NotTo(HaveOccurred())
		Expect(entries).To(HaveLen(2))
	})

	It("drops a torn trailing line", func() {
		write(started("a::t")+"\n", `{"event":"started","nodeid":"b`)

		entries, err := ledger.ReadFile(path)
		Expect(err).NotTo(HaveOccurred())
		Expect(entries).To(HaveLen(1))
		Expect(entries[0].TestID).To(Equal("a::t"))
	})

	It("accepts a complete trailing entry that lost its newline", func() {
		write(started("a::t")+"\n", started("b::t"))

		entries, err := ledger.ReadFile(path)
		Expect(err).NotTo(HaveOccurred())
		Expect(entries).To(HaveLen(2))
	})

	It("fails on a malformed line in the middle of the file", func() {
		write(started("a::t")+"\n", "garbage\n", started("b::t")+"\n")

		_, err := ledger.ReadFile(path)
		Expect(err).To(HaveOccurred())

		var parseErr *ledger.ParseError
		Expect(errors.As(err, &parseErr)).To(BeTrue())
		Expect(parseErr.Path).To(Equal(path))
		Expect(parseErr.Line).To(Equal(2))
		Expect(err.Error()).To(ContainSubstring(path))
	})

	It("fails on entries that are valid JSON but not ledger entries", func() {
		for _, bad := range []string{
			`{"event":"started"}`,
			`{"event":"paused","nodeid":"a::t"}`,
			`{"event":"finished","nodeid":"a::t"}`,
			`{"event":"started","nodeid":"a::t","outcome":"passed"}`,
		} {
			write(bad+"\n", started("b::t")+"\n")
			_, err := ledger.ReadFile(path)
			Expect(err).To(HaveOccurred(), bad)
		}
	})

	It("does not modify the file and yields identical results twice", func() {
		write(started("a::t")+"\n", finished("a::t")+"\n", `{"torn`)
		before, err := os.ReadFile(path)
		Expect(err).NotTo(HaveOccurred())

		first, err := ledger.ReadFile(path)
		Expect(err).NotTo(HaveOccurred())
		second, err := ledger.ReadFile(path)
		Expect(err).NotTo(HaveOccurred())
		Expect(second).To(Equal(first))

		after, err := os.ReadFile(path)
		Expect(err).NotTo(HaveOccurred())
		Expect(after).To(Equal(before))
	})

	It("reports a missing file", func() {
		_, err := ledger.ReadFile(filepath.Join(dir, "missing.jsonl"))
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("ReadDir", func() {
	var dir string

	BeforeEach(func() {
		var err error
		dir, err = os.MkdirTemp("", "ptr-ledger-*")
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		os.RemoveAll(dir)
	})

	It("returns an empty map for a missing directory", func() {
		ledgers, err := ledger.ReadDir(filepath.Join(dir, "nope"))
		Expect(err).NotTo(HaveOccurred())
		Expect(ledgers).To(BeEmpty())
	})

	It("keys every ledger file by worker tag and ignores other files", func() {
		for _, tag := range []string{"", "gw0", "gw1"} {
			w, err := ledger.Open(dir, tag)
			Expect(err).NotTo(HaveOccurred())
			Expect(w.RecordStart("t::" + tag)).To(Succeed())
			Expect(w.Close()).To(Succeed())
		}
		Expect(os.WriteFile(filepath.Join(dir, ".ptr-session.json"), []byte("{}"), 0644)).To(Succeed())
		Expect(os.Mkdir(filepath.Join(dir, ledger.FileName("gw9")), 0755)).To(Succeed())

		ledgers, err := ledger.ReadDir(dir)
		Expect(err).NotTo(HaveOccurred())
		Expect(ledger.Tags(ledgers)).To(Equal([]string{"", "gw0", "gw1"}))
		Expect(ledgers["gw1"][0].TestID).To(Equal("t::gw1"))
	})

	It("surfaces a corrupt worker file", func() {
		Expect(os.WriteFile(filepath.Join(dir, ledger.FileName("gw0")), []byte("nope\n"+started("a::t")+"\n"), 0644)).To(Succeed())

		_, err := ledger.ReadDir(dir)
		Expect(err).To(HaveOccurred())
	})
})
