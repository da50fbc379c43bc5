package scan

import (
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("BoltDB", func() {
	var (
		db  *BoltDB
		err error
	)

	BeforeEach(func() {
		db, err = NewBoltDB(filepath.Join(GinkgoT().TempDir(), "test.db"))
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		db.Close()
	})

	Describe("SaveScan and GetScan", func() {
		var scan *Scan

		BeforeEach(func() {
			scan = &Scan{
				ID:             "123",
				Mode:           "receipt",
				From:           "THB",
				To:             "USD",
				Total:          350,
				Rate:           0.03,
				ConvertedCents: 1050,
				Commentary:     "Street food stall.",
				Filename:       "123_bill.jpg",
				ContentType:    "image/jpeg",
				CreatedAt:      time.Date(2025, 11, 3, 12, 0, 0, 0, time.UTC),
				UpdatedAt:      time.Date(2025, 11, 3, 12, 0, 0, 0, time.UTC),
			}
		})

		It("round-trips a scan", func() {
			Expect(db.SaveScan(scan)).To(Succeed())

			got, err := db.GetScan("123")
			Expect(err).NotTo(HaveOccurred())
			Expect(got).To(Equal(scan))
		})

		It("returns an error for an unknown ID", func() {
			_, err := db.GetScan("missing")
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("ListScans", func() {
		It("returns an empty slice when the bucket is empty", func() {
			scans, err := db.ListScans()
			Expect(err).NotTo(HaveOccurred())
			Expect(scans).To(BeEmpty())
		})

		It("returns every saved scan", func() {
			Expect(db.SaveScan(&Scan{ID: "1", Total: 10})).To(Succeed())
			Expect(db.SaveScan(&Scan{ID: "2", Total: 20})).To(Succeed())

			scans, err := db.ListScans()
			Expect(err).NotTo(HaveOccurred())
			Expect(scans).To(HaveLen(2))
		})
	})

	Describe("DeleteScan", func() {
		It("removes the scan", func() {
			Expect(db.SaveScan(&Scan{ID: "1"})).To(Succeed())
			Expect(db.DeleteScan("1")).To(Succeed())

			_, err := db.GetScan("1")
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("trips", func() {
		var trip *Trip

		BeforeEach(func() {
			trip = &Trip{
				ID:         "t1",
				Name:       "Bangkok",
				ScanIDs:    []string{"1", "2"},
				TotalCents: 1300,
				CreatedAt:  time.Date(2025, 11, 3, 12, 0, 0, 0, time.UTC),
				UpdatedAt:  time.Date(2025, 11, 3, 12, 0, 0, 0, time.UTC),
			}
		})

		It("round-trips a trip", func() {
			Expect(db.SaveTrip(trip)).To(Succeed())

			got, err := db.GetTrip("t1")
			Expect(err).NotTo(HaveOccurred())
			Expect(got).To(Equal(trip))
		})

		It("returns an error for an unknown trip", func() {
			_, err := db.GetTrip("missing")
			Expect(err).To(HaveOccurred())
		})

		It("lists every saved trip", func() {
			Expect(db.SaveTrip(trip)).To(Succeed())
			Expect(db.SaveTrip(&Trip{ID: "t2", Name: "Hanoi"})).To(Succeed())

			trips, err := db.ListTrips()
			Expect(err).NotTo(HaveOccurred())
			Expect(trips).To(HaveLen(2))
		})
	})
})
