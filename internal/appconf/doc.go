// Package appconf 定义 xlogd 的配置结构，并把配置装配为挂载在总线上的 sink。
//
// 配置示例：
//
//	process:
//	  max_open_files: 8192
//	diagnostics:
//	  level: info
//	  format: json
//	  file: /var/log/xlogd/diag.log
//	  rotation:
//	    max_size: 10MiB
//	    backups: 3
//	sinks:
//	  - name: app
//	    kind: file
//	    logger: app
//	    level: debug
//	    path: ~/logs/app.log
//	    engine: async
//	    max_size: 1MiB
//	    pattern: "2006-01-02"
//	    mode: "0640"
//	  - name: tenants
//	    kind: multifile
//	    base_dir: /var/log/tenants
//	    key_attr: tenant
//	    idle_timeout: 5m
//	    sample:
//	      rate: 0.1
//	      key_attr: tenant
//	      keep_level: warn
//	  - name: splunk
//	    kind: hec
//	    url: https://collector:8088
//	    token: ${HEC_TOKEN}
//
// max_size 接受 "10MB"、"1MiB" 这类可读大小或字节数；mode 接受八进制字符串
// 或整数。backups 省略时取默认值 5，显式写 0 表示不保留备份。
package appconf
