package mesh_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/nexusfab/nexus/mesh"
	"github.com/nexusfab/nexus/message"
	"github.com/nexusfab/nexus/node"
	"github.com/nexusfab/nexus/pipe"
)

var _ = Describe("Mesh", func() {
	var m *mesh.Mesh

	BeforeEach(func() {
		m = mesh.Builder{}.WithRows(2).WithColumns(2).Build()
	})

	Describe("Build", func() {
		It("should wire every tile's neighbours so the mesh starts idle", func() {
			Expect(m.IsIdle()).To(BeTrue())
		})

		It("should chain a column aggregator onto the bottom tile of every column", func() {
			Expect(m.Aggregator(0)).NotTo(BeNil())
			Expect(m.Aggregator(1)).NotTo(BeNil())
		})

		It("should panic building a mesh with zero rows or columns", func() {
			Expect(func() { mesh.Builder{}.WithRows(0).WithColumns(1).Build() }).To(Panic())
		})
	})

	Describe("Ingress", func() {
		It("should route a LOAD frame addressed to tile (0,0) into that tile's instruction memory", func() {
			egress := pipe.New()
			m.AttachEgress(egress)

			for i, b := range []uint8{0xAA, 0xBB, 0xCC, 0xDD} {
				m.Ingress().EnqueueLoad(message.Load{
					Header:  message.Header{TargetRow: 0, TargetColumn: 0, Command: message.CommandLoad},
					Address: uint16(i / 2),
					Slot:    i%2 == 1,
					Data:    b,
				})
			}
			m.Step(false)

			Expect(m.Tile(0, 0).InstMemory.Read(0)).To(Equal(uint32(0xDDCCBBAA)))
		})

		It("should panic addressing a tile outside the mesh's bounds", func() {
			Expect(func() { m.Tile(5, 5) }).To(Panic())
		})
	})

	Describe("Reset", func() {
		It("should return every tile and aggregator to idle and reseed the power-on WAIT instruction", func() {
			egress := pipe.New()
			m.AttachEgress(egress)
			m.Ingress().EnqueueLoad(message.Load{
				Header: message.Header{TargetRow: 0, TargetColumn: 0, Command: message.CommandLoad},
			})
			m.Step(false)
			m.Reset()
			Expect(m.IsIdle()).To(BeTrue())
			want := node.EncodeWait(node.Wait{PC0: true, Idle: true})
			Expect(m.Tile(0, 0).InstMemory.Read(0)).To(Equal(want))
		})
	})
})
