// Package xsampling 为总线路由提供事件采样。
//
// 采样在级别过滤之后、转换之前执行：被丢弃的事件不会进入 sink 的排空计数。
//
//   - [Always] / [Never]：全采样与全丢弃
//   - [RateSampler]：按比率随机采样
//   - [CountSampler]：每 N 个事件保留 1 个
//   - [KeySampler]：按事件属性值做一致性哈希，同一租户的事件要么全部保留，要么全部丢弃
//   - [KeepLevel]：不低于指定级别的事件总是保留，其余交给内层采样器
package xsampling
