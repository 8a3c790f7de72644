package patch

import "github.com/gogpu/spv-patcher/spirv"

// strip is link-merge's final stage: it lowers back to flat IR (a no-op if
// Resolve already left the module flat, which it does) and removes the
// Linkage capability and every LinkageAttributes annotation, unless the
// caller asked to keep them for later re-linking.
func (st *staticReplaceState) strip(patcher *Patcher) error {
	if st.cfg.KeepAsLibrary {
		return nil
	}
	target, err := patcher.AsFlat()
	if err != nil {
		return err
	}
	target.RemoveLinkageAttributes()
	target.RemoveCapability(spirv.CapabilityLinkage)
	return nil
}
