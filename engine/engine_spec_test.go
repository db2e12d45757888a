package engine_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/nexusfab/nexus/engine"
	"github.com/nexusfab/nexus/message"
)

var _ = Describe("Engine", func() {
	var e *engine.Engine

	BeforeEach(func() {
		e = engine.New(2, 2)
	})

	Describe("New", func() {
		It("should start with both the mesh and the control plane idle", func() {
			Expect(e.Mesh.IsIdle()).To(BeTrue())
			Expect(e.Control.IsIdle()).To(BeTrue())
		})
	})

	Describe("Run", func() {
		It("should drain a queued LOAD request into the addressed tile's instruction memory", func() {
			for i, b := range []uint8{0xAA, 0xBB, 0xCC, 0xDD} {
				load := message.Load{
					Header: message.Header{TargetRow: 0, TargetColumn: 0, Command: message.CommandLoad},
					Address: uint16(i / 2),
					Slot:    i%2 == 1,
					Data:    b,
				}
				raw := message.PackLoad(load)
				e.Control.FromHost().Enqueue(message.PackToMesh(message.ToMesh{Frame: raw}))
			}

			e.Run(1, false)

			Expect(e.Mesh.Tile(0, 0).InstMemory.Read(0)).To(Equal(uint32(0xDDCCBBAA)))
			Expect(e.Mesh.IsIdle()).To(BeTrue())
			Expect(e.Control.IsIdle()).To(BeTrue())
		})

		It("should report zero effective frequency for a zero-cycle run", func() {
			Expect(e.Run(0, true)).To(BeZero())
		})
	})

	Describe("Reset", func() {
		It("should return the mesh, control plane and egress pipe to their power-on state", func() {
			for i, b := range []uint8{0x11, 0x22, 0x33, 0x44} {
				load := message.Load{
					Header: message.Header{TargetRow: 0, TargetColumn: 0, Command: message.CommandLoad},
					Address: uint16(i / 2),
					Slot:    i%2 == 1,
					Data:    b,
				}
				raw := message.PackLoad(load)
				e.Control.FromHost().Enqueue(message.PackToMesh(message.ToMesh{Frame: raw}))
			}
			e.Run(1, false)

			e.Reset()

			Expect(e.Mesh.IsIdle()).To(BeTrue())
			Expect(e.Control.IsIdle()).To(BeTrue())
		})
	})
})
