// Package state tracks the access state of GPU resources shared between the
// host and feature plugins.
//
// Hosts describe a resource's state in native terms: D3D12_RESOURCE_STATES
// flags on D3D12, a VkImageLayout on Vulkan, nothing on D3D11 where the
// driver tracks state implicitly. ResourceState is the portable form both
// translate to. A Tracker memoizes the state last observed for each native
// object so plugins can compute the barriers needed before recording work.
package state
