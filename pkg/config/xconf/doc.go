// Package xconf 加载 xlogkit 的声明式配置文件，基于 koanf 实现。
//
// 只负责读取、解析、反序列化和热重载，不做字段校验与默认值注入，
// 这些由 internal/appconf 完成。
//
// # 支持的格式
//
//   - YAML：.yaml, .yml
//   - JSON：.json
//
// # 快照语义
//
// [File] 持有当前配置的不可变快照。[File.Reload] 在锁内串行执行，
// 解析成功后原子替换快照；内容摘要（xxhash）未变化时不替换，
// 调用方据此跳过无意义的重新应用。解析失败保留旧快照。
//
// [File.Koanf] 返回的实例在 Reload 后仍可用，但指向旧数据。
//
// # 监视
//
// [Watcher] 监视配置文件所在目录（兼容编辑器先写临时文件再 rename 的保存方式），
// 变更经防抖后触发 Reload，再以结果回调。Watcher 实现 Run(ctx) error，
// 可以直接作为 xrun.Service 挂入进程生命周期。
package xconf
