package scan

import (
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("LocalStorage", func() {
	var (
		tmpDir  string
		storage Storage
	)

	BeforeEach(func() {
		tmpDir = GinkgoT().TempDir()
		var err error
		storage, err = NewLocalStorage(tmpDir)
		Expect(err).NotTo(HaveOccurred())
	})

	Describe("Save", func() {
		var (
			filename  string
			data      []byte
			savedPath string
			err       error
		)

		BeforeEach(func() {
			filename = "scan-1_bill.jpg"
			data = []byte("photo bytes")
		})

		JustBeforeEach(func() {
			savedPath, err = storage.Save(filename, data)
		})

		When("saving succeeds", func() {
			It("should not return an error", func() {
				Expect(err).NotTo(HaveOccurred())
			})

			It("should return the correct path", func() {
				Expect(savedPath).To(Equal(filename))
			})

			It("should save the photo to disk", func() {
				Expect(filepath.Join(tmpDir, filename)).To(BeAnExistingFile())
			})
		})
	})

	Describe("Get", func() {
		When("the photo exists", func() {
			BeforeEach(func() {
				_, err := storage.Save("bill.jpg", []byte("photo bytes"))
				Expect(err).NotTo(HaveOccurred())
			})

			It("returns the photo bytes", func() {
				data, err := storage.Get("bill.jpg")
				Expect(err).NotTo(HaveOccurred())
				Expect(data).To(Equal([]byte("photo bytes")))
			})
		})

		When("the photo is missing", func() {
			It("returns an error", func() {
				_, err := storage.Get("missing.jpg")
				Expect(err).To(HaveOccurred())
			})
		})
	})

	Describe("Delete", func() {
		When("the photo exists", func() {
			BeforeEach(func() {
				_, err := storage.Save("bill.jpg", []byte("photo bytes"))
				Expect(err).NotTo(HaveOccurred())
			})

			It("removes it from disk", func() {
				Expect(storage.Delete("bill.jpg")).To(Succeed())
				Expect(filepath.Join(tmpDir, "bill.jpg")).NotTo(BeAnExistingFile())
			})
		})

		When("the photo is missing", func() {
			It("returns an error", func() {
				Expect(storage.Delete("missing.jpg")).NotTo(Succeed())
			})
		})
	})
})
